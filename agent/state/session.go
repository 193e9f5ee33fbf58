package state

import (
	"time"

	"parley/agent/contract"
)

// ConversationState is the per-session source of truth for slot filling.
// Invariant: Slots only ever holds keys defined by the schema of the current
// Intent; SwitchIntent clears the map before the new intent is recorded, so
// values can never leak across topics.
type ConversationState struct {
	SessionID string            `json:"session_id"`
	Intent    contract.Intent   `json:"intent"`
	Slots     map[string]string `json:"slots,omitempty"`

	// AwaitingSlot names the slot the agent asked about on the previous turn,
	// or is empty when the last turn did not end in a clarifying question.
	AwaitingSlot string `json:"awaiting_slot,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversationState returns the neutral state for an unseen session.
func NewConversationState(sessionID string, now time.Time) *ConversationState {
	return &ConversationState{
		SessionID: sessionID,
		Intent:    contract.IntentUnknown,
		Slots:     make(map[string]string, 4),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *ConversationState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// ResetSlots clears all slot values and any pending clarifying question.
func (s *ConversationState) ResetSlots() {
	s.Slots = make(map[string]string, 4)
	s.AwaitingSlot = ""
}

// SwitchIntent resets slots and records the new intent. Reset happens
// unconditionally before the new intent is written.
func (s *ConversationState) SwitchIntent(intent contract.Intent, now time.Time) {
	s.ResetSlots()
	s.Intent = intent
	s.Touch(now)
}

// MergeSlots overwrites present keys and leaves absent ones untouched, so
// slots accumulate across turns within one intent. Callers must sanitize
// values against the intent's schema first.
func (s *ConversationState) MergeSlots(newSlots map[string]string, now time.Time) {
	if len(newSlots) == 0 {
		return
	}
	if s.Slots == nil {
		s.Slots = make(map[string]string, len(newSlots))
	}
	for k, v := range newSlots {
		s.Slots[k] = v
	}
	s.Touch(now)
}

// Clone returns a deep copy; the store hands out and accepts only copies so a
// turn's working state is never aliased by a concurrent reader.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	dup := *s
	dup.Slots = make(map[string]string, len(s.Slots))
	for k, v := range s.Slots {
		dup.Slots[k] = v
	}
	return &dup
}
