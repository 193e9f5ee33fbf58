package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	"parley/agent/contract"
	promptx "parley/agent/prompt"
	"parley/agent/schema"
)

// Extractor wraps per-intent structured-output model graphs behind the
// contract.Extractor capability. Failures degrade to an empty extraction:
// nothing new learned this turn.
type Extractor struct {
	weatherRunner compose.Runnable[map[string]any, weatherSlotsOutput]
	stockRunner   compose.Runnable[map[string]any, stockSlotsOutput]
	timeout       time.Duration
}

var _ contract.Extractor = (*Extractor)(nil)

// Null-able fields: a nil pointer means the model saw nothing for that slot,
// which must stay distinct from an empty string.
type weatherSlotsOutput struct {
	Location *string `json:"location"`
}

type stockSlotsOutput struct {
	Symbol   *string `json:"symbol"`
	Exchange *string `json:"exchange"`
}

func NewExtractor(ctx context.Context, cfg Config, prompts promptx.PromptSet) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if prompts.WeatherExtractor == "" || prompts.StockExtractor == "" {
		return nil, fmt.Errorf("%w: extractor prompts", contract.ErrPromptMissing)
	}

	routerCfg := cfg.OpenRouterFor(CapabilityExtractor)
	chatModel, err := routerCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create extractor model: %v", contract.ErrModelInvoke, err)
	}

	weatherRunner, err := compileStructuredLLMGraph[weatherSlotsOutput](
		ctx, chatModel, prompts.WeatherExtractor, "extractor.weather_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile weather extractor: %v", contract.ErrModelInvoke, err)
	}
	stockRunner, err := compileStructuredLLMGraph[stockSlotsOutput](
		ctx, chatModel, prompts.StockExtractor, "extractor.stock_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile stock extractor: %v", contract.ErrModelInvoke, err)
	}

	return &Extractor{
		weatherRunner: weatherRunner,
		stockRunner:   stockRunner,
		timeout:       cfg.Timeout,
	}, nil
}

func (e *Extractor) Extract(
	ctx context.Context,
	intent contract.Intent,
	text string,
	prior map[string]string,
) (contract.Extraction, error) {
	if !intent.Known() {
		return contract.Extraction{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	input, err := extractorInput(text, prior)
	if err != nil {
		return contract.Extraction{}, fmt.Errorf("%w: marshal extractor payload: %v", contract.ErrValidation, err)
	}

	raw := map[string]string{}
	switch intent {
	case contract.IntentWeather:
		out, err := e.weatherRunner.Invoke(ctx, input)
		if err != nil {
			log.Debug().Err(err).Msg("weather slot extraction degraded")
			return contract.Extraction{}, nil
		}
		putSlot(raw, schema.SlotLocation, out.Location)
	case contract.IntentStock:
		out, err := e.stockRunner.Invoke(ctx, input)
		if err != nil {
			log.Debug().Err(err).Msg("stock slot extraction degraded")
			return contract.Extraction{}, nil
		}
		putSlot(raw, schema.SlotSymbol, out.Symbol)
		putSlot(raw, schema.SlotExchange, out.Exchange)
	}

	return contract.Extraction{Slots: raw}, nil
}

func extractorInput(text string, prior map[string]string) (map[string]any, error) {
	payload := map[string]any{
		"message":     text,
		"prior_slots": prior,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return map[string]any{"input": string(encoded)}, nil
}

func putSlot(dst map[string]string, name string, val *string) {
	if val == nil {
		return
	}
	dst[name] = *val
}
