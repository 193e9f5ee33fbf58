package dialognode

import (
	"fmt"

	"parley/agent/contract"
	statex "parley/agent/state"
)

// CommitState writes the turn's resulting conversation state back to the
// store: the single atomic write of the turn, after which streaming may
// begin. Runs on every path, including the fallback turn, so the side-effect
// count stays constant.
func CommitState(in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contract.ErrValidation)
	}

	if err := store.Commit(in.Session); err != nil {
		return nil, fmt.Errorf("commit conversation state: %w", err)
	}
	return in, nil
}

// FinalizeOutcome terminates the graph, guaranteeing a resolved outcome.
func FinalizeOutcome(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}
	if !in.resolved() {
		return GraphOutput{}, fmt.Errorf("%w: turn ended without an outcome", contract.ErrStateCorrupted)
	}
	return GraphOutput{Outcome: in.Outcome, TurnID: in.TurnID, Intent: in.Intent}, nil
}
