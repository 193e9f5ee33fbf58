package state

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"parley/agent/contract"
)

func TestGetUnseenSessionReturnsNeutralState(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	st, err := store.Get("fresh")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if st.Intent != contract.IntentUnknown {
		t.Fatalf("expected unknown intent, got %q", st.Intent)
	}
	if len(st.Slots) != 0 || st.AwaitingSlot != "" {
		t.Fatalf("expected empty neutral state, got %+v", st)
	}
	if store.Len() != 0 {
		t.Fatalf("Get must not create sessions, have %d", store.Len())
	}
}

func TestGetInvalidSession(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	if _, err := store.Get("   "); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestCommitStoresDetachedCopy(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	st := NewConversationState("s1", time.Now())
	st.Intent = contract.IntentStock
	st.Slots["symbol"] = "TSLA"
	if err := store.Commit(st); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	// Mutating the caller's copy after commit must not leak into the store.
	st.Slots["symbol"] = "AAPL"

	got, err := store.Get("s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Slots["symbol"] != "TSLA" {
		t.Fatalf("stored state aliased caller's map: %+v", got.Slots)
	}

	// And mutating what Get returned must not touch the store either.
	got.Slots["symbol"] = "NVDA"
	again, _ := store.Get("s1")
	if again.Slots["symbol"] != "TSLA" {
		t.Fatalf("Get returned aliased state: %+v", again.Slots)
	}
}

func TestAcquireSerializesSameSession(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	release, err := store.Acquire("s1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	second := make(chan struct{})
	go func() {
		rel, err := store.Acquire("s1")
		if err != nil {
			t.Errorf("second Acquire() error = %v", err)
			close(second)
			return
		}
		rel()
		close(second)
	}()

	select {
	case <-second:
		t.Fatal("second Acquire returned while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	// A different session must not block.
	relOther, err := store.Acquire("s2")
	if err != nil {
		t.Fatalf("Acquire(s2) error = %v", err)
	}
	relOther()

	release()
	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("second Acquire never proceeded after release")
	}
}

func TestConcurrentTurnsInterleaveWithoutLoss(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	const turns = 50

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := store.Acquire("s1")
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			defer release()

			st, err := store.Get("s1")
			if err != nil {
				t.Errorf("Get() error = %v", err)
				return
			}
			st.Slots["count"] = st.Slots["count"] + "x"
			if err := store.Commit(st); err != nil {
				t.Errorf("Commit() error = %v", err)
			}
		}()
	}
	wg.Wait()

	st, err := store.Get("s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(st.Slots["count"]) != turns {
		t.Fatalf("lost updates: expected %d appends, got %d", turns, len(st.Slots["count"]))
	}
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := now
	store := NewMemoryStore(
		WithTTL(time.Hour),
		WithClock(func() time.Time { return clock }),
	)

	old := NewConversationState("old", now)
	if err := store.Commit(old); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	clock = now.Add(2 * time.Hour)
	fresh := NewConversationState("fresh", clock)
	if err := store.Commit(fresh); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected one removal, got %d", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one surviving session, got %d", store.Len())
	}

	st, err := store.Get("old")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if st.Intent != contract.IntentUnknown || len(st.Slots) != 0 {
		t.Fatalf("expected neutral state after expiry, got %+v", st)
	}
}

func TestAcquireSerializesAgainstConcurrentSweep(t *testing.T) {
	t.Parallel()

	// An aggressive TTL makes every idle entry sweepable immediately, forcing
	// the window where a sweep can drop an entry between Acquire's map lookup
	// and its lock.
	store := NewMemoryStore(WithTTL(time.Nanosecond))

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				store.Sweep()
			}
		}
	}()

	var active, overlaps int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				release, err := store.Acquire("s1")
				if err != nil {
					t.Errorf("Acquire() error = %v", err)
					return
				}
				if atomic.AddInt32(&active, 1) > 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				atomic.AddInt32(&active, -1)
				release()
			}
		}()
	}
	wg.Wait()
	close(stop)

	if overlaps != 0 {
		t.Fatalf("same-session holds overlapped %d times", overlaps)
	}
}

func TestSweepSkipsInFlightSession(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := now
	store := NewMemoryStore(
		WithTTL(time.Hour),
		WithClock(func() time.Time { return clock }),
	)

	st := NewConversationState("busy", now)
	if err := store.Commit(st); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	release, err := store.Acquire("busy")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	clock = now.Add(2 * time.Hour)
	if removed := store.Sweep(); removed != 0 {
		t.Fatalf("expected locked session skipped, removed %d", removed)
	}
	release()

	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected removal after release, removed %d", removed)
	}
}

func TestSwitchIntentClearsSlots(t *testing.T) {
	t.Parallel()

	now := time.Now()
	st := NewConversationState("s1", now)
	st.Intent = contract.IntentWeather
	st.Slots["location"] = "Paris"
	st.AwaitingSlot = "location"

	st.SwitchIntent(contract.IntentStock, now)

	if st.Intent != contract.IntentStock {
		t.Fatalf("expected stock intent, got %q", st.Intent)
	}
	if len(st.Slots) != 0 {
		t.Fatalf("expected slots cleared, got %+v", st.Slots)
	}
	if st.AwaitingSlot != "" {
		t.Fatalf("expected pending question cleared, got %q", st.AwaitingSlot)
	}
}

func TestMergeSlotsAccumulates(t *testing.T) {
	t.Parallel()

	now := time.Now()
	st := NewConversationState("s1", now)
	st.MergeSlots(map[string]string{"symbol": "TSLA"}, now)
	st.MergeSlots(map[string]string{"exchange": "NASDAQ"}, now)
	st.MergeSlots(map[string]string{"symbol": "AAPL"}, now)

	if st.Slots["symbol"] != "AAPL" {
		t.Fatalf("expected overwrite, got %q", st.Slots["symbol"])
	}
	if st.Slots["exchange"] != "NASDAQ" {
		t.Fatalf("expected preserved slot, got %q", st.Slots["exchange"])
	}
}
