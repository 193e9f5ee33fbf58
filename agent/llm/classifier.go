package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	"parley/agent/contract"
	openrouterx "parley/pkg/openrouter"
)

// Classifier wraps a chat model behind the contract.Classifier capability.
// Any failure (timeout, transport, unparseable output) degrades to
// {unknown, 0}; the orchestrator never sees a classifier error.
type Classifier struct {
	client  *openaisdk.Client
	model   string
	prompt  string
	timeout time.Duration
	maxTok  int64
	temp    float64
}

var _ contract.Classifier = (*Classifier)(nil)

func NewClassifier(cfg Config, systemPrompt string) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: classifier prompt", contract.ErrPromptMissing)
	}

	routerCfg := cfg.OpenRouterFor(CapabilityClassifier)
	client := openrouterx.NewClient(routerCfg)
	if client == nil {
		return nil, fmt.Errorf("%w: build classifier client", contract.ErrModelInvoke)
	}

	return &Classifier{
		client:  client,
		model:   routerCfg.Model,
		prompt:  systemPrompt,
		timeout: cfg.Timeout,
		maxTok:  int64(cfg.MaxCompletionToken),
		temp:    float64(routerCfg.Temperature),
	}, nil
}

type classifierOutput struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

func (c *Classifier) Classify(ctx context.Context, text string) (contract.Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(c.prompt),
			openaisdk.UserMessage(text),
		},
		MaxCompletionTokens: openaisdk.Int(c.maxTok),
		Temperature:         openaisdk.Float(c.temp),
	})
	if err != nil {
		log.Debug().Err(err).Msg("intent classification degraded")
		return unknownClassification(), nil
	}
	if len(completion.Choices) == 0 {
		log.Debug().Msg("intent classification returned no choices")
		return unknownClassification(), nil
	}

	var out classifierOutput
	raw := stripFences(completion.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Debug().Err(err).Str("raw", raw).Msg("intent classification unparseable")
		return unknownClassification(), nil
	}

	intent := contract.Intent(strings.ToLower(strings.TrimSpace(out.Intent)))
	if !intent.Known() {
		intent = contract.IntentUnknown
	}

	return contract.Classification{
		Intent:     intent,
		Confidence: clamp01(out.Confidence),
	}, nil
}

func unknownClassification() contract.Classification {
	return contract.Classification{Intent: contract.IntentUnknown, Confidence: 0}
}

// stripFences tolerates models that wrap JSON in markdown code fences.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
