package dialognode

import (
	"fmt"

	"parley/agent/contract"
	schemax "parley/agent/schema"
)

// ValidateSlots computes the missing required slots. Non-empty: the turn
// resolves to a clarifying question for the first missing slot in schema
// order, one question per turn, and the partial state persists. Empty: the
// pending-question flag clears and the turn proceeds to dispatch.
func ValidateSlots(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contract.ErrValidation)
	}
	if in.resolved() {
		return in, nil
	}
	if !in.Intent.Known() {
		return nil, fmt.Errorf("%w: %q", contract.ErrUnknownIntent, in.Intent)
	}

	missing := schemax.Missing(in.Intent, in.Session.Slots)
	if len(missing) == 0 {
		in.Session.AwaitingSlot = ""
		return in, nil
	}

	first := missing[0]
	in.Session.AwaitingSlot = first.Name
	in.Session.Touch(in.Now)
	in.Outcome = contract.Outcome{
		Kind:     contract.OutcomeClarify,
		Question: first.Question,
	}
	return in, nil
}
