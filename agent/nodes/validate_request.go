package dialognode

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"parley/agent/contract"
	statex "parley/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Outcome contract.Outcome
	TurnID  string
	Intent  contract.Intent
}

// GraphState is the working set of one dialogue turn, threaded through the
// orchestrator graph. Session holds the turn's private copy of conversation
// state; it reaches the store only through the commit node.
type GraphState struct {
	SessionID string
	Text      string
	TurnID    string
	Now       time.Time

	Session        *statex.ConversationState
	Classification contract.Classification
	Intent         contract.Intent

	// Outcome.Kind being set means the turn is resolved; downstream nodes
	// pass the state through untouched.
	Outcome contract.Outcome
}

func (s *GraphState) resolved() bool {
	return s.Outcome.Kind != ""
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		TurnID:    uuid.NewString(),
		Now:       nowFn().UTC(),
	}, nil
}
