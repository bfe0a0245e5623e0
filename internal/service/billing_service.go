package service

import (
	"context"
	"errors"
	"time"

	"github.com/slotwise/parking-service/internal/billing"
	"github.com/slotwise/parking-service/internal/models"
	"github.com/slotwise/parking-service/internal/repository"
	"github.com/slotwise/parking-service/pkg/rabbitmq"
	"gorm.io/gorm"
)

var (
	ErrAlreadySettled        = errors.New("reservation is already settled")
	ErrNotReadyForSettlement = errors.New("reservation is not ready for settlement")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrPaymentNotFound       = errors.New("payment not found")
)

type BillingService interface {
	Settle(ctx context.Context, reservationID uint, method models.PaymentMethod) (*models.Payment, error)
	Preview(ctx context.Context, reservationID uint) (*FeePreview, error)
	GetPayment(ctx context.Context, reservationID uint) (*models.Payment, error)
}

// FeePreview is a non-committing fee estimate computed against the
// current clock. Nothing is persisted.
type FeePreview struct {
	ReservationID uint                     `json:"reservation_id"`
	Status        models.ReservationStatus `json:"status"`
	UsageMinutes  int                      `json:"usage_minutes"`
	IsNoShow      bool                     `json:"is_no_show"`
	Quote         billing.Quote            `json:"quote"`
	TotalDue      int64                    `json:"total_due"`
}

type billingService struct {
	paymentRepo     repository.PaymentRepository
	reservationRepo repository.ReservationRepository
	slotRepo        repository.SlotRepository
	publisher       *rabbitmq.Publisher
	now             func() time.Time
}

func NewBillingService(paymentRepo repository.PaymentRepository, reservationRepo repository.ReservationRepository, slotRepo repository.SlotRepository, publisher *rabbitmq.Publisher) BillingService {
	return NewBillingServiceWithClock(paymentRepo, reservationRepo, slotRepo, publisher, time.Now)
}

// NewBillingServiceWithClock injects the clock so settlement outcomes are
// deterministic in tests.
func NewBillingServiceWithClock(paymentRepo repository.PaymentRepository, reservationRepo repository.ReservationRepository, slotRepo repository.SlotRepository, publisher *rabbitmq.Publisher, now func() time.Time) BillingService {
	return &billingService{
		paymentRepo:     paymentRepo,
		reservationRepo: reservationRepo,
		slotRepo:        slotRepo,
		publisher:       publisher,
		now:             now,
	}
}

// Settle finalizes billing for a reservation: computes the fee, creates the
// immutable Payment record, copies the billing fields onto the reservation,
// transitions it to settled and, once the booked window has fully elapsed,
// releases the slot's availability flag. All of it commits as one
// transaction; on any failure nothing is visible.
func (s *billingService) Settle(ctx context.Context, reservationID uint, method models.PaymentMethod) (*models.Payment, error) {
	if !models.ValidMethod(method) {
		return nil, ErrInvalidPaymentMethod
	}

	now := s.now()
	var result *models.Payment

	err := s.reservationRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := s.reservationRepo.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return ErrReservationNotFound
		}

		if reservation.Status == models.StatusSettled || reservation.PaymentID != nil {
			return ErrAlreadySettled
		}

		isNoShow := reservation.IsNoShowAt(now)
		if reservation.Status != models.StatusCheckedOut && !isNoShow {
			return ErrNotReadyForSettlement
		}

		quote := billing.Compute(reservation.UsageMinutes, now, reservation.CheckOutAt, isNoShow)

		payment := &models.Payment{
			ReservationID: reservation.ID,
			Charge:        quote.Charge,
			PenaltyAmount: quote.Penalty,
			PenaltyKind:   quote.PenaltyKind,
			Slabs:         quote.Slabs,
			UsageMinutes:  reservation.UsageMinutes,
			Amount:        quote.Amount(),
			Method:        method,
			SettledAt:     now,
		}
		if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			// Unique index on reservation_id: a concurrent settle won the race
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadySettled
			}
			return err
		}

		reservation.Slabs = quote.Slabs
		reservation.Charge = quote.Charge
		reservation.PenaltyAmount = quote.Penalty
		reservation.PenaltyKind = quote.PenaltyKind
		reservation.Status = models.StatusSettled
		reservation.PaymentID = &payment.ID
		if err := s.reservationRepo.Save(ctx, tx, reservation); err != nil {
			return err
		}

		// Release the display flag only once the booked window is behind us;
		// a settled future reservation still blocks the slot for its window
		if now.After(reservation.EndTime) {
			if _, err := s.slotRepo.FindByIDForUpdate(ctx, tx, reservation.SlotID); err != nil {
				return err
			}
			if err := s.slotRepo.SetAvailability(ctx, tx, reservation.SlotID, true); err != nil {
				return err
			}
		}

		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("payment.settled", result)
	}

	return result, nil
}

// GetPayment returns the settled receipt for a reservation.
func (s *billingService) GetPayment(ctx context.Context, reservationID uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.FindByReservationID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// Preview recomputes the fee rules against the current clock without
// creating any record.
func (s *billingService) Preview(ctx context.Context, reservationID uint) (*FeePreview, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, ErrReservationNotFound
	}

	now := s.now()
	isNoShow := reservation.IsNoShowAt(now)
	usage := previewUsageMinutes(reservation, now)

	quote := billing.Compute(usage, now, reservation.CheckOutAt, isNoShow)

	return &FeePreview{
		ReservationID: reservation.ID,
		Status:        reservation.Status,
		UsageMinutes:  usage,
		IsNoShow:      isNoShow,
		Quote:         quote,
		TotalDue:      quote.Amount(),
	}, nil
}

// previewUsageMinutes estimates occupied minutes for an unsettled
// reservation. A vehicle that is still parked accrues usage up to now,
// capped at the booked duration.
func previewUsageMinutes(r *models.Reservation, now time.Time) int {
	switch {
	case r.CheckInAt != nil && r.CheckOutAt != nil:
		return r.UsageMinutes
	case r.CheckInAt != nil:
		elapsed := models.MinutesBetween(*r.CheckInAt, now)
		booked := r.Interval().Minutes()
		if elapsed > booked {
			return booked
		}
		return elapsed
	default:
		return 0
	}
}
