package billing

import (
	"time"

	"github.com/slotwise/parking-service/internal/models"
)

// Fixed slab rate table. Charges are whole currency units.
const (
	SlabMinutes = 15
	RatePerSlab = int64(5)
	NoShowFee   = int64(5)
	LateFee     = int64(5)

	// SettlementGrace is how long after check-out a settlement may land
	// before the late-payment fee applies.
	SettlementGrace = 24 * time.Hour
)

// Quote is the outcome of a fee computation. Amount is always
// Charge + Penalty; callers never supply any of these values.
type Quote struct {
	Slabs       int                `json:"slabs"`
	Charge      int64              `json:"charge"`
	Penalty     int64              `json:"penalty"`
	PenaltyKind models.PenaltyKind `json:"penalty_kind"`
}

// Amount is the total due for the quote.
func (q Quote) Amount() int64 {
	return q.Charge + q.Penalty
}

// SlabsFor converts occupied minutes into billing slabs. Partial slabs
// always round up: 1 minute is 1 slab, 15 minutes is 1 slab, 16 minutes
// is 2 slabs.
func SlabsFor(usageMinutes int) int {
	if usageMinutes <= 0 {
		return 0
	}
	return (usageMinutes + SlabMinutes - 1) / SlabMinutes
}

// Compute applies the fee rules in priority order:
//
//  1. no-show or zero usage: no parking charge, fixed no-show fee
//  2. settlement more than SettlementGrace after check-out: slab charge
//     plus the fixed late fee (additive, never a replacement)
//  3. otherwise: slab charge only
//
// settledAt is injected by the caller so the result is deterministic;
// occupancyEnd is nil when the vehicle never checked out.
func Compute(usageMinutes int, settledAt time.Time, occupancyEnd *time.Time, isNoShow bool) Quote {
	if isNoShow || usageMinutes <= 0 {
		return Quote{
			Slabs:       0,
			Charge:      0,
			Penalty:     NoShowFee,
			PenaltyKind: models.PenaltyNoShow,
		}
	}

	slabs := SlabsFor(usageMinutes)
	charge := int64(slabs) * RatePerSlab

	if occupancyEnd != nil && settledAt.Sub(*occupancyEnd) > SettlementGrace {
		return Quote{
			Slabs:       slabs,
			Charge:      charge,
			Penalty:     LateFee,
			PenaltyKind: models.PenaltyLatePayment,
		}
	}

	return Quote{
		Slabs:       slabs,
		Charge:      charge,
		Penalty:     0,
		PenaltyKind: models.PenaltyNone,
	}
}
