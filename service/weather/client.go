// Package weather fetches current conditions from OpenWeatherMap: geocode
// the city to coordinates, then read the current weather. Failures are mapped
// to the closed contract.ServiceErrorKind set; provider response bodies stay
// in error detail and never reach rendered output.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"parley/agent/contract"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	APIKey     string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	GeoURL     string        `envconfig:"GEO_URL" split_words:"true" default:"https://api.openweathermap.org/geo/1.0/direct"`
	WeatherURL string        `envconfig:"WEATHER_URL" split_words:"true" default:"https://api.openweathermap.org/data/2.5/weather"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
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
	geoURL     string
	weatherURL string
	httpClient *http.Client
}

var _ contract.WeatherService = (*Client)(nil)

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openweathermap api key is required")
	}
	geoURL := strings.TrimSpace(cfg.GeoURL)
	if _, err := url.ParseRequestURI(geoURL); err != nil {
		return nil, fmt.Errorf("invalid geocoding url: %w", err)
	}
	weatherURL := strings.TrimSpace(cfg.WeatherURL)
	if _, err := url.ParseRequestURI(weatherURL); err != nil {
		return nil, fmt.Errorf("invalid weather url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		apiKey:     apiKey,
		geoURL:     geoURL,
		weatherURL: weatherURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type geoResult struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type weatherResult struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Fetch resolves a city name into a current-conditions report.
func (c *Client) Fetch(ctx context.Context, location string) (*contract.WeatherReport, error) {
	city := strings.TrimSpace(location)
	if city == "" {
		return nil, contract.NewServiceError(contract.ServiceNotFound, "empty location")
	}

	lat, lon, err := c.geocode(ctx, city)
	if err != nil {
		return nil, err
	}
	return c.current(ctx, lat, lon)
}

func (c *Client) geocode(ctx context.Context, city string) (float64, float64, error) {
	query := url.Values{}
	query.Set("q", city)
	query.Set("limit", "1")
	query.Set("appid", c.apiKey)

	var results []geoResult
	if err := c.getJSON(ctx, c.geoURL, query, &results); err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, contract.NewServiceError(contract.ServiceNotFound, "city %q not found", city)
	}
	return results[0].Lat, results[0].Lon, nil
}

func (c *Client) current(ctx context.Context, lat, lon float64) (*contract.WeatherReport, error) {
	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%f", lat))
	query.Set("lon", fmt.Sprintf("%f", lon))
	query.Set("appid", c.apiKey)

	var result weatherResult
	if err := c.getJSON(ctx, c.weatherURL, query, &result); err != nil {
		return nil, err
	}
	if len(result.Weather) == 0 {
		return nil, contract.NewServiceError(contract.ServiceUnknown, "weather payload missing conditions")
	}

	return &contract.WeatherReport{
		City:        result.Name,
		Country:     result.Sys.Country,
		Condition:   result.Weather[0].Main,
		Description: result.Weather[0].Description,
		TempC:       kelvinToCelsius(result.Main.Temp),
		FeelsLikeC:  kelvinToCelsius(result.Main.FeelsLike),
		Humidity:    result.Main.Humidity,
		WindSpeed:   result.Wind.Speed,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, base string, query url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+query.Encode(), nil)
	if err != nil {
		return contract.NewServiceError(contract.ServiceUnknown, "build weather request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err, "weather")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return contract.NewServiceError(contract.ServiceUnknown, "read weather response: %v", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return contract.NewServiceError(contract.ServiceNotFound, "weather http status=404")
	case resp.StatusCode == http.StatusTooManyRequests:
		return contract.NewServiceError(contract.ServiceRateLimited, "weather http status=429")
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return contract.NewServiceError(contract.ServiceUnknown, "weather http status=%d body=%s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return contract.NewServiceError(contract.ServiceUnknown, "decode weather response: %v", err)
	}
	return nil
}

func kelvinToCelsius(kelvin float64) float64 {
	return kelvin - 273.15
}

func transportError(err error, provider string) *contract.ServiceError {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return contract.NewServiceError(contract.ServiceTimeout, "%s request timed out", provider)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return contract.NewServiceError(contract.ServiceTimeout, "%s request timed out", provider)
	}
	return contract.NewServiceError(contract.ServiceUnknown, "%s request failed: %v", provider, err)
}
