// Package sweeper runs the recurring pass that stamps overdue reservations:
// late-payment penalties on long-unsettled check-outs and no_show on
// reservations whose window elapsed without a check-in. Both passes are
// idempotent, so an external scheduler may invoke Run as often as it likes.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/slotwise/parking-service/internal/billing"
)

// ReservationStore is the slice of the reservation repository the sweeper
// needs.
type ReservationStore interface {
	ApplyLatePenalties(ctx context.Context, overdueBefore time.Time, fee int64, now time.Time) (int64, error)
	MarkNoShows(ctx context.Context, now time.Time) (int64, error)
}

type PenaltySweeper struct {
	store ReservationStore
	now   func() time.Time
}

func New(store ReservationStore) *PenaltySweeper {
	return NewWithClock(store, time.Now)
}

func NewWithClock(store ReservationStore, now func() time.Time) *PenaltySweeper {
	return &PenaltySweeper{store: store, now: now}
}

// Run executes one sweep. Reservations that already carry a penalty or
// are already stamped no_show fall out of the WHERE clauses, so running
// twice in succession applies nothing twice.
func (s *PenaltySweeper) Run(ctx context.Context) error {
	now := s.now()

	penalized, err := s.store.ApplyLatePenalties(ctx, now.Add(-billing.SettlementGrace), billing.LateFee, now)
	if err != nil {
		return err
	}

	noShows, err := s.store.MarkNoShows(ctx, now)
	if err != nil {
		return err
	}

	if penalized > 0 || noShows > 0 {
		log.Printf("[Sweeper] applied %d late penalties, marked %d no-shows", penalized, noShows)
	}
	return nil
}

// Start runs the sweep on a fixed interval until ctx is cancelled. A failed
// sweep is logged and retried on the next tick; it never takes the process
// down or blocks the request path.
func (s *PenaltySweeper) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[Sweeper] stopping")
				return
			case <-ticker.C:
				if err := s.Run(ctx); err != nil {
					log.Printf("[Sweeper] sweep failed: %v", err)
				}
			}
		}
	}()
}
