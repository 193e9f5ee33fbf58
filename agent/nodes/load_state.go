package dialognode

import (
	"fmt"

	"parley/agent/contract"
	statex "parley/agent/state"
)

// LoadState borrows the session's conversation state for the duration of the
// turn. The store returns a detached copy, so every mutation below stays
// invisible until the commit node runs.
func LoadState(in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}

	st, err := store.Get(in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load conversation state: %w", err)
	}
	in.Session = st
	return in, nil
}
