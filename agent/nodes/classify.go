package dialognode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"parley/agent/contract"
)

// Classify invokes the intent classifier on the raw user text. Classification
// is memoryless: stored slots are never passed. A failing classifier degrades
// to unknown/0 here as a second line of defense; implementations should
// already absorb their own failures.
func Classify(ctx context.Context, in *GraphState, classifier contract.Classifier) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}

	cls, err := classifier.Classify(ctx, in.Text)
	if err != nil {
		log.Debug().Err(err).Str("turn_id", in.TurnID).Msg("classifier error absorbed")
		cls = contract.Classification{Intent: contract.IntentUnknown, Confidence: 0}
	}
	in.Classification = cls
	return in, nil
}
