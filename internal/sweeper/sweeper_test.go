package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slotwise/parking-service/internal/billing"
	"github.com/stretchr/testify/assert"
)

// --- Mock ReservationStore ---

// mockStore simulates the idempotent bulk updates: a reservation id moves
// out of the pending set once stamped, the way the repository's WHERE
// clauses exclude already-stamped rows.
type mockStore struct {
	pendingLate   map[uint]time.Time // id → check-out time
	pendingNoShow map[uint]time.Time // id → end time
	penalized     []uint
	noShows       []uint
	failLate      error
}

func (m *mockStore) ApplyLatePenalties(ctx context.Context, overdueBefore time.Time, fee int64, now time.Time) (int64, error) {
	if m.failLate != nil {
		return 0, m.failLate
	}
	var affected int64
	for id, checkOut := range m.pendingLate {
		if checkOut.Before(overdueBefore) {
			m.penalized = append(m.penalized, id)
			delete(m.pendingLate, id)
			affected++
		}
	}
	return affected, nil
}

func (m *mockStore) MarkNoShows(ctx context.Context, now time.Time) (int64, error) {
	var affected int64
	for id, end := range m.pendingNoShow {
		if end.Before(now) {
			m.noShows = append(m.noShows, id)
			delete(m.pendingNoShow, id)
			affected++
		}
	}
	return affected, nil
}

// --- Tests ---

func TestRun_AppliesLatePenaltyOnce(t *testing.T) {
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	store := &mockStore{
		pendingLate: map[uint]time.Time{
			1: now.Add(-48 * time.Hour), // overdue
			2: now.Add(-1 * time.Hour),  // inside grace
		},
		pendingNoShow: map[uint]time.Time{},
	}

	s := NewWithClock(store, func() time.Time { return now })

	assert.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []uint{1}, store.penalized)

	// Second sweep is a no-op for the already-stamped reservation
	assert.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []uint{1}, store.penalized, "penalty must not double-apply")
}

func TestRun_MarksNoShows(t *testing.T) {
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	store := &mockStore{
		pendingLate: map[uint]time.Time{},
		pendingNoShow: map[uint]time.Time{
			7: now.Add(-time.Minute),
			8: now.Add(time.Hour), // window still open
		},
	}

	s := NewWithClock(store, func() time.Time { return now })

	assert.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []uint{7}, store.noShows)

	assert.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []uint{7}, store.noShows)
}

func TestRun_CutoffUsesSettlementGrace(t *testing.T) {
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	store := &mockStore{
		pendingLate: map[uint]time.Time{
			// 1 minute short of the 24h grace → untouched
			3: now.Add(-billing.SettlementGrace + time.Minute),
		},
		pendingNoShow: map[uint]time.Time{},
	}

	s := NewWithClock(store, func() time.Time { return now })

	assert.NoError(t, s.Run(context.Background()))
	assert.Empty(t, store.penalized)
}

func TestRun_PropagatesStoreError(t *testing.T) {
	store := &mockStore{failLate: errors.New("db down")}

	s := New(store)

	err := s.Run(context.Background())
	assert.Error(t, err)
}
