// Package orchestrator runs the per-turn dialogue state machine: classify,
// reconcile intent, extract, validate, then clarify or dispatch. All control
// flow here is deterministic; the model-backed capabilities arrive as narrow
// interfaces and are substituted with fakes in tests.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	"parley/agent/contract"
	"parley/agent/format"
	nodex "parley/agent/nodes"
	statex "parley/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

const defaultSwitchThreshold = 0.7

// Config carries the tunables of the turn state machine. The switch threshold
// is deliberately a parameter, not a constant: it decides how confident a
// classification must be to evict an active intent and wipe its slots.
type Config struct {
	SwitchThreshold float64 `envconfig:"SWITCH_THRESHOLD" split_words:"true" default:"0.7"`
}

type Orchestrator struct {
	store      statex.Store
	classifier contract.Classifier
	extractor  contract.Extractor
	weather    contract.WeatherService
	stock      contract.StockService

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	switchThreshold float64
	now             func() time.Time
}

func New(
	store statex.Store,
	classifier contract.Classifier,
	extractor contract.Extractor,
	weather contract.WeatherService,
	stock contract.StockService,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if weather == nil {
		return nil, errors.New("weather service is required")
	}
	if stock == nil {
		return nil, errors.New("stock service is required")
	}

	threshold := cfg.SwitchThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = defaultSwitchThreshold
	}

	o := &Orchestrator{
		store:           store,
		classifier:      classifier,
		extractor:       extractor,
		weather:         weather,
		stock:           stock,
		switchThreshold: threshold,
		now:             time.Now,
	}

	graphRunner, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage runs one dialogue turn and returns the ordered chunk stream
// of the reply. The stream is finite and not restartable; each call consumes
// fresh classifier, extractor, and service calls. Turns for the same session
// are serialized; the store commit happens before the first chunk is
// produced, so cancelling the stream never loses state.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (<-chan string, error) {
	release, err := o.store.Acquire(sessionID)
	if err != nil {
		return nil, ErrInvalidSession
	}

	out, err := func() (nodex.GraphOutput, error) {
		defer release()
		return o.graphRunner.Invoke(ctx, nodex.GraphInput{
			SessionID: sessionID,
			Text:      text,
		})
	}()
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", sessionID).
		Str("turn_id", out.TurnID).
		Str("intent", string(out.Intent)).
		Str("outcome", string(out.Outcome.Kind)).
		Msg("dialogue turn completed")

	return format.Stream(ctx, format.Render(out.Outcome)), nil
}
