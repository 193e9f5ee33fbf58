package state

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrInvalidSession = errors.New("session id is empty")

const (
	defaultSessionTTL    = 24 * time.Hour
	defaultSweepInterval = 10 * time.Minute
)

// Store is the memory contract used by the orchestrator: read-modify-commit
// with session-level serialization. Get returns a detached copy (a fresh
// neutral state for unseen ids); Commit is the single atomic write of a turn.
type Store interface {
	Get(sessionID string) (*ConversationState, error)
	Commit(st *ConversationState) error
	// Acquire blocks until the session is free and returns its release func.
	// Same-session turns run strictly one at a time; different sessions are
	// independent.
	Acquire(sessionID string) (release func(), err error)
	Delete(sessionID string) error
}

// StoreOption customizes MemoryStore.
type StoreOption func(*MemoryStore)

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

type sessionEntry struct {
	mu    sync.Mutex
	state *ConversationState
}

// MemoryStore keeps all conversation state in process memory. Sessions are
// created on first use and reclaimed by the TTL sweep; the orchestrator never
// destroys them.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	ttl time.Duration
	now func() time.Time
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      defaultSessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) Get(sessionID string) (*ConversationState, error) {
	id, err := validSessionID(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || entry.state == nil {
		return NewConversationState(id, s.now()), nil
	}
	return entry.state.Clone(), nil
}

func (s *MemoryStore) Commit(st *ConversationState) error {
	if st == nil {
		return errors.New("conversation state is nil")
	}
	id, err := validSessionID(st.SessionID)
	if err != nil {
		return err
	}

	committed := st.Clone()
	committed.Touch(s.now())

	s.mu.Lock()
	entry, ok := s.sessions[id]
	if !ok {
		entry = &sessionEntry{}
		s.sessions[id] = entry
	}
	entry.state = committed
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Acquire(sessionID string) (func(), error) {
	id, err := validSessionID(sessionID)
	if err != nil {
		return nil, err
	}

	for {
		s.mu.Lock()
		entry, ok := s.sessions[id]
		if !ok {
			entry = &sessionEntry{}
			s.sessions[id] = entry
		}
		s.mu.Unlock()

		entry.mu.Lock()

		// The sweep may have removed this entry between the map lookup and
		// the lock. Holding a lock on an unreachable entry serializes
		// nothing; re-check identity and retry on the live entry.
		s.mu.RLock()
		current := s.sessions[id]
		s.mu.RUnlock()
		if current == entry {
			return entry.mu.Unlock, nil
		}
		entry.mu.Unlock()
	}
}

func (s *MemoryStore) Delete(sessionID string) error {
	id, err := validSessionID(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Sweep drops sessions idle past the TTL. Sessions with an in-flight turn are
// skipped and picked up by a later sweep.
func (s *MemoryStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.sessions {
		if entry.state != nil && entry.state.UpdatedAt.After(cutoff) {
			continue
		}
		if !entry.mu.TryLock() {
			continue
		}
		entry.mu.Unlock()
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// StartJanitor sweeps periodically until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					log.Debug().Int("sessions", n).Msg("swept expired conversation state")
				}
			}
		}
	}()
}

// Len reports the number of tracked sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func validSessionID(sessionID string) (string, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return "", ErrInvalidSession
	}
	return id, nil
}
