//go:build integration

package integration

import (
	"sync"
	"testing"
	"time"

	"github.com/slotwise/parking-service/internal/billing"
	"github.com/slotwise/parking-service/internal/models"
	"github.com/slotwise/parking-service/internal/repository"
	"github.com/slotwise/parking-service/internal/service"
	"github.com/slotwise/parking-service/internal/sweeper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBillingService(now time.Time) service.BillingService {
	paymentRepo := repository.NewPaymentRepository(testDB)
	reservationRepo := repository.NewReservationRepository(testDB)
	slotRepo := repository.NewSlotRepository(testDB)
	return service.NewBillingServiceWithClock(paymentRepo, reservationRepo, slotRepo, nil, func() time.Time { return now })
}

// Drives a reservation through reserve, check-in and check-out so billing
// tests start from a checked_out row.
func checkedOutReservation(t *testing.T, slotID uint, usage time.Duration) *models.Reservation {
	t.Helper()
	svc := newReservationService()

	r, err := svc.Reserve(t.Context(), slotID, "user-001", "KA-01-AA-0001", baseTime, baseTime.Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.CheckIn(t.Context(), r.ID, baseTime)
	require.NoError(t, err)
	r, err = svc.CheckOut(t.Context(), r.ID, baseTime.Add(usage))
	require.NoError(t, err)
	return r
}

func TestSettle_NormalFlow(t *testing.T) {
	cleanTables()
	slot := createTestSlot(t, "A-01", true)
	r := checkedOutReservation(t, slot.ID, 45*time.Minute)

	// Settled shortly after the booked window elapses
	settleAt := baseTime.Add(65 * time.Minute)
	payment, err := newBillingService(settleAt).Settle(t.Context(), r.ID, models.MethodUPI)
	require.NoError(t, err)

	assert.Equal(t, 3, payment.Slabs, "45 minutes is 3 slabs")
	assert.Equal(t, int64(15), payment.Charge)
	assert.Equal(t, int64(0), payment.PenaltyAmount)
	assert.Equal(t, models.PenaltyNone, payment.PenaltyKind)
	assert.Equal(t, int64(15), payment.Amount)
	assert.Equal(t, models.MethodUPI, payment.Method)

	var settled models.Reservation
	require.NoError(t, testDB.First(&settled, r.ID).Error)
	assert.Equal(t, models.StatusSettled, settled.Status)
	require.NotNil(t, settled.PaymentID)
	assert.Equal(t, payment.ID, *settled.PaymentID)

	// Window is over, so the slot flag is released
	var releasedSlot models.Slot
	require.NoError(t, testDB.First(&releasedSlot, slot.ID).Error)
	assert.True(t, releasedSlot.IsAvailable)
}

func TestSettle_NoShow(t *testing.T) {
	cleanTables()
	slot := createTestSlot(t, "A-01", true)
	svc := newReservationService()

	r, err := svc.Reserve(t.Context(), slot.ID, "user-001", "KA-01-AA-0001", baseTime, baseTime.Add(time.Hour))
	require.NoError(t, err)

	// Window elapsed with no check-in
	settleAt := baseTime.Add(2 * time.Hour)
	payment, err := newBillingService(settleAt).Settle(t.Context(), r.ID, models.MethodCard)
	require.NoError(t, err)

	assert.Equal(t, 0, payment.Slabs)
	assert.Equal(t, int64(0), payment.Charge)
	assert.Equal(t, billing.NoShowFee, payment.PenaltyAmount)
	assert.Equal(t, models.PenaltyNoShow, payment.PenaltyKind)
	assert.Equal(t, billing.NoShowFee, payment.Amount)
}

func TestSettle_LatePenalty(t *testing.T) {
	cleanTables()
	slot := createTestSlot(t, "A-01", true)
	r := checkedOutReservation(t, slot.ID, 45*time.Minute)

	// 25 hours after check-out exceeds the settlement grace
	settleAt := r.CheckOutAt.Add(25 * time.Hour)
	payment, err := newBillingService(settleAt).Settle(t.Context(), r.ID, models.MethodWallet)
	require.NoError(t, err)

	assert.Equal(t, int64(15), payment.Charge)
	assert.Equal(t, billing.LateFee, payment.PenaltyAmount)
	assert.Equal(t, models.PenaltyLatePayment, payment.PenaltyKind)
	assert.Equal(t, int64(20), payment.Amount, "Late fee is additive")
}

func TestSettle_NotReadyWhileCheckedIn(t *testing.T) {
	cleanTables()
	slot := createTestSlot(t, "A-01", true)
	svc := newReservationService()

	r, err := svc.Reserve(t.Context(), slot.ID, "user-001", "KA-01-AA-0001", baseTime, baseTime.Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.CheckIn(t.Context(), r.ID, baseTime)
	require.NoError(t, err)

	_, err = newBillingService(baseTime.Add(30*time.Minute)).Settle(t.Context(), r.ID, models.MethodCard)
	assert.ErrorIs(t, err, service.ErrNotReadyForSettlement)
}

func TestSettle_Twice(t *testing.T) {
	cleanTables()
	slot := createTestSlot(t, "A-01", true)
	r := checkedOutReservation(t, slot.ID, 30*time.Minute)

	svc := newBillingService(baseTime.Add(65 * time.Minute))

	// No receipt exists yet
	_, err := svc.GetPayment(t.Context(), r.ID)
	assert.ErrorIs(t, err, service.ErrPaymentNotFound)

	first, err := svc.Settle(t.Context(), r.ID, models.MethodCard)
	require.NoError(t, err)

	_, err = svc.Settle(t.Context(), r.ID, models.MethodCard)
	assert.ErrorIs(t, err, service.ErrAlreadySettled)

	receipt, err := svc.GetPayment(t.Context(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, receipt.ID)
}

// 10 concurrent settlement attempts produce exactly one payment record.
func TestConcurrentSettle(t *testing.T) {
	cleanTables()
	slot := createTestSlot(t, "A-01", true)
	r := checkedOutReservation(t, slot.ID, 45*time.Minute)

	svc := newBillingService(baseTime.Add(65 * time.Minute))

	attempts := 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.Settle(t.Context(), r.ID, models.MethodUPI); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	var conflicts int
	for err := range errs {
		assert.ErrorIs(t, err, service.ErrAlreadySettled)
		conflicts++
	}
	assert.Equal(t, attempts-1, conflicts, "Exactly one settle should win")

	var count int64
	testDB.Model(&models.Payment{}).Where("reservation_id = ?", r.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPreview_DoesNotCommit(t *testing.T) {
	cleanTables()
	slot := createTestSlot(t, "A-01", true)
	r := checkedOutReservation(t, slot.ID, 45*time.Minute)

	svc := newBillingService(baseTime.Add(65 * time.Minute))

	preview, err := svc.Preview(t.Context(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, preview.Quote.Slabs)
	assert.Equal(t, int64(15), preview.TotalDue)

	var payments int64
	testDB.Model(&models.Payment{}).Count(&payments)
	assert.Equal(t, int64(0), payments)

	var unchanged models.Reservation
	require.NoError(t, testDB.First(&unchanged, r.ID).Error)
	assert.Equal(t, models.StatusCheckedOut, unchanged.Status)
}

func TestPreview_StillParkedCapsAtBookedDuration(t *testing.T) {
	cleanTables()
	slot := createTestSlot(t, "A-01", true)
	svc := newReservationService()

	r, err := svc.Reserve(t.Context(), slot.ID, "user-001", "KA-01-AA-0001", baseTime, baseTime.Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.CheckIn(t.Context(), r.ID, baseTime)
	require.NoError(t, err)

	// 20 minutes in: usage accrues up to now
	preview, err := newBillingService(baseTime.Add(20 * time.Minute)).Preview(t.Context(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, preview.UsageMinutes)
	assert.Equal(t, 2, preview.Quote.Slabs)

	// Two hours in: usage caps at the booked 60 minutes
	preview, err = newBillingService(baseTime.Add(2 * time.Hour)).Preview(t.Context(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, preview.UsageMinutes)
	assert.Equal(t, 4, preview.Quote.Slabs)
}

func TestSweeper_IdempotentPass(t *testing.T) {
	cleanTables()
	slotA := createTestSlot(t, "A-01", true)
	slotB := createTestSlot(t, "A-02", true)
	svc := newReservationService()

	// Checked out, never settled, now 25h overdue
	overdue := checkedOutReservation(t, slotA.ID, 45*time.Minute)

	// Reserved, window elapsed, never checked in
	noShow, err := svc.Reserve(t.Context(), slotB.ID, "user-002", "KA-01-AA-0002", baseTime, baseTime.Add(time.Hour))
	require.NoError(t, err)

	sweepAt := overdue.CheckOutAt.Add(25 * time.Hour)
	reservationRepo := repository.NewReservationRepository(testDB)
	s := sweeper.NewWithClock(reservationRepo, func() time.Time { return sweepAt })

	require.NoError(t, s.Run(t.Context()))

	var swept models.Reservation
	require.NoError(t, testDB.First(&swept, overdue.ID).Error)
	assert.Equal(t, billing.LateFee, swept.PenaltyAmount)
	assert.Equal(t, models.PenaltyLatePayment, swept.PenaltyKind)
	require.NotNil(t, swept.PenaltyAppliedAt)

	var stamped models.Reservation
	require.NoError(t, testDB.First(&stamped, noShow.ID).Error)
	assert.Equal(t, models.StatusNoShow, stamped.Status)

	// Second pass changes nothing
	require.NoError(t, s.Run(t.Context()))

	var after models.Reservation
	require.NoError(t, testDB.First(&after, overdue.ID).Error)
	assert.Equal(t, billing.LateFee, after.PenaltyAmount, "Penalty applies once")
	assert.Equal(t, swept.PenaltyAppliedAt.Unix(), after.PenaltyAppliedAt.Unix())
}
