package dialognode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"parley/agent/contract"
	schemax "parley/agent/schema"
)

// ExtractSlots invokes the slot extractor against the effective intent and
// merges the sanitized result into the session: present keys overwrite,
// absent keys preserve, so slots accumulate across turns. Extractor output
// never reaches state without passing the schema's shape checks.
func ExtractSlots(ctx context.Context, in *GraphState, extractor contract.Extractor) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contract.ErrValidation)
	}
	if in.resolved() {
		return in, nil
	}

	ext, err := extractor.Extract(ctx, in.Intent, in.Text, in.Session.Slots)
	if err != nil {
		log.Debug().Err(err).Str("turn_id", in.TurnID).Msg("extractor error absorbed")
		ext = contract.Extraction{}
	}

	clean := schemax.Sanitize(in.Intent, ext.Slots)
	in.Session.MergeSlots(clean, in.Now)
	return in, nil
}
