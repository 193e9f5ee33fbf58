// Package stock fetches real-time quotes from Twelve Data. Free-tier plan
// rejections (the provider suggests upgrading, e.g. for non-US exchanges)
// are surfaced as ServiceUnsupportedRegion so the formatter can answer with
// the fixed plan-limitation template.
package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"parley/agent/contract"
	"parley/agent/schema"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.twelvedata.com/quote"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// ClientOption customizes Client.
type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ contract.StockService = (*Client)(nil)

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("twelvedata api key is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid quote url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// quoteResult covers both shapes Twelve Data returns on one endpoint: a quote
// payload on success, or {code, message, status} on failure.
type quoteResult struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Exchange      string `json:"exchange"`
	Currency      string `json:"currency"`
	Close         string `json:"close"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
	IsMarketOpen  bool   `json:"is_market_open"`

	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Fetch looks up a real-time quote for symbol on exchange. Both arguments are
// normalized before the provider call so "apple inc" / "nasdaq" casing from
// extraction does not leak into the request.
func (c *Client) Fetch(ctx context.Context, symbol string, exchange string) (*contract.StockQuote, error) {
	sym := schema.NormalizeSymbol(symbol)
	exch := schema.NormalizeExchange(exchange)
	if sym == "" {
		return nil, contract.NewServiceError(contract.ServiceNotFound, "empty symbol")
	}

	query := url.Values{}
	query.Set("symbol", sym)
	if exch != "" {
		query.Set("exchange", exch)
	}
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, contract.NewServiceError(contract.ServiceUnknown, "build quote request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, contract.NewServiceError(contract.ServiceUnknown, "read quote response: %v", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, contract.NewServiceError(contract.ServiceRateLimited, "quote http status=429")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, contract.NewServiceError(contract.ServiceUnknown, "quote http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var result quoteResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, contract.NewServiceError(contract.ServiceUnknown, "decode quote response: %v", err)
	}
	if kind, ok := providerError(result, sym); ok {
		return nil, kind
	}

	price, err := strconv.ParseFloat(result.Close, 64)
	if err != nil {
		return nil, contract.NewServiceError(contract.ServiceUnknown, "quote close %q is not numeric", result.Close)
	}
	change := looseFloat(result.Change, "change")
	percent := looseFloat(result.PercentChange, "percent_change")

	quote := &contract.StockQuote{
		Symbol:        result.Symbol,
		Name:          result.Name,
		Exchange:      result.Exchange,
		Price:         price,
		Currency:      result.Currency,
		Change:        change,
		PercentChange: percent,
		MarketOpen:    result.IsMarketOpen,
	}
	if quote.Symbol == "" {
		quote.Symbol = sym
	}
	if quote.Exchange == "" {
		quote.Exchange = exch
	}
	if quote.Currency == "" {
		quote.Currency = "USD"
	}
	return quote, nil
}

// providerError maps Twelve Data's in-body {code, message} failures onto the
// closed error-kind set.
func providerError(result quoteResult, symbol string) (*contract.ServiceError, bool) {
	if result.Status != "error" && result.Code == 0 {
		return nil, false
	}

	message := strings.ToLower(result.Message)
	switch {
	case strings.Contains(message, "grow") || strings.Contains(message, "plan") || strings.Contains(message, "upgrade"):
		return contract.NewServiceError(contract.ServiceUnsupportedRegion, "plan rejection for %s: %s", symbol, result.Message), true
	case result.Code == http.StatusNotFound || strings.Contains(message, "not found") || strings.Contains(message, "not_found"):
		return contract.NewServiceError(contract.ServiceNotFound, "symbol %s: %s", symbol, result.Message), true
	case result.Code == http.StatusTooManyRequests || strings.Contains(message, "api credits"):
		return contract.NewServiceError(contract.ServiceRateLimited, "rate limited: %s", result.Message), true
	default:
		return contract.NewServiceError(contract.ServiceUnknown, "provider code=%d message=%s", result.Code, result.Message), true
	}
}

// looseFloat parses the secondary quote fields. Close is load-bearing and
// fails the fetch; these only decorate the reply, so a malformed value
// degrades to zero with a log instead of discarding an otherwise good quote.
func looseFloat(raw string, field string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Debug().Str("field", field).Str("raw", raw).Msg("quote field is not numeric")
		return 0
	}
	return v
}

func transportError(err error) *contract.ServiceError {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return contract.NewServiceError(contract.ServiceTimeout, "quote request timed out")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return contract.NewServiceError(contract.ServiceTimeout, "quote request timed out")
	}
	return contract.NewServiceError(contract.ServiceUnknown, "quote request failed: %v", err)
}
