package service

import (
	"context"
	"errors"
	"time"

	"github.com/slotwise/parking-service/internal/models"
	"github.com/slotwise/parking-service/internal/repository"
	"github.com/slotwise/parking-service/pkg/rabbitmq"
	"gorm.io/gorm"
)

var (
	ErrSlotNotFound        = errors.New("slot not found")
	ErrSlotDisabled        = errors.New("slot is disabled")
	ErrInvalidInterval     = errors.New("start time must be before end time")
	ErrSlotConflict        = errors.New("slot already reserved for this time range")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrAlreadyCheckedIn    = errors.New("reservation is already checked in")
	ErrNotCheckedIn        = errors.New("reservation has no check-in to check out from")
	ErrCheckInTooEarly     = errors.New("check-in window has not opened yet")
	ErrCheckInClosed       = errors.New("check-in window has closed")
	ErrAlreadyCancelled    = errors.New("reservation is already cancelled")
	ErrNotCancellable      = errors.New("reservation can no longer be cancelled")
)

// CheckInEarlyGrace is how far before the booked start a check-in is
// still accepted.
const CheckInEarlyGrace = 15 * time.Minute

type ReservationService interface {
	Reserve(ctx context.Context, slotID uint, userID, vehiclePlate string, start, end time.Time) (*models.Reservation, error)
	CheckIn(ctx context.Context, reservationID uint, at time.Time) (*models.Reservation, error)
	CheckOut(ctx context.Context, reservationID uint, at time.Time) (*models.Reservation, error)
	Cancel(ctx context.Context, reservationID uint) (*models.Reservation, error)
	GetReservation(ctx context.Context, id uint) (*models.Reservation, error)
	ListByUser(ctx context.Context, userID string, status *models.ReservationStatus) ([]models.Reservation, error)
	ListBySlot(ctx context.Context, slotID uint, status *models.ReservationStatus) ([]models.Reservation, error)
}

type reservationService struct {
	reservationRepo repository.ReservationRepository
	slotRepo        repository.SlotRepository
	publisher       *rabbitmq.Publisher
}

func NewReservationService(reservationRepo repository.ReservationRepository, slotRepo repository.SlotRepository, publisher *rabbitmq.Publisher) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		slotRepo:        slotRepo,
		publisher:       publisher,
	}
}

func (s *reservationService) Reserve(ctx context.Context, slotID uint, userID, vehiclePlate string, start, end time.Time) (*models.Reservation, error) {
	requested := models.Interval{Start: start, End: end}
	if !requested.Valid() {
		return nil, ErrInvalidInterval
	}

	var result *models.Reservation

	err := s.reservationRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the slot row — serializes concurrent reservation attempts per slot
		slot, err := s.slotRepo.FindByIDForUpdate(ctx, tx, slotID)
		if err != nil {
			return ErrSlotNotFound
		}
		if !slot.Enabled {
			return ErrSlotDisabled
		}

		// 2. Conflict check against stored intervals, never the availability flag
		overlapping, err := s.reservationRepo.FindOverlapping(ctx, tx, slotID, start, end)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return ErrSlotConflict
		}

		// 3. Create reservation and flip the display flag in the same tx
		reservation := &models.Reservation{
			SlotID:       slotID,
			UserID:       userID,
			VehiclePlate: vehiclePlate,
			StartTime:    start,
			EndTime:      end,
			Status:       models.StatusReserved,
			PenaltyKind:  models.PenaltyNone,
		}
		if err := s.reservationRepo.Create(ctx, tx, reservation); err != nil {
			return err
		}
		if err := s.slotRepo.SetAvailability(ctx, tx, slotID, false); err != nil {
			return err
		}

		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("reservation.created", result)
	}

	return result, nil
}

// CheckIn records the actual arrival time. Legal only from reserved, and
// only from CheckInEarlyGrace before the booked start until the booked end.
func (s *reservationService) CheckIn(ctx context.Context, reservationID uint, at time.Time) (*models.Reservation, error) {
	var result *models.Reservation

	err := s.reservationRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := s.reservationRepo.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return ErrReservationNotFound
		}

		switch reservation.Status {
		case models.StatusReserved:
			// ok
		case models.StatusCheckedIn:
			return ErrAlreadyCheckedIn
		default:
			return ErrCheckInClosed
		}

		if at.Before(reservation.StartTime.Add(-CheckInEarlyGrace)) {
			return ErrCheckInTooEarly
		}
		if !at.Before(reservation.EndTime) {
			return ErrCheckInClosed
		}

		reservation.CheckInAt = &at
		reservation.Status = models.StatusCheckedIn
		if err := s.reservationRepo.Save(ctx, tx, reservation); err != nil {
			return err
		}

		result = reservation
		return nil
	})

	return result, err
}

// CheckOut records the departure time and the occupied minutes.
func (s *reservationService) CheckOut(ctx context.Context, reservationID uint, at time.Time) (*models.Reservation, error) {
	var result *models.Reservation

	err := s.reservationRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := s.reservationRepo.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return ErrReservationNotFound
		}

		if reservation.Status != models.StatusCheckedIn {
			return ErrNotCheckedIn
		}

		reservation.CheckOutAt = &at
		reservation.UsageMinutes = models.MinutesBetween(*reservation.CheckInAt, at)
		reservation.Status = models.StatusCheckedOut
		if err := s.reservationRepo.Save(ctx, tx, reservation); err != nil {
			return err
		}

		result = reservation
		return nil
	})

	return result, err
}

func (s *reservationService) Cancel(ctx context.Context, reservationID uint) (*models.Reservation, error) {
	var result *models.Reservation

	err := s.reservationRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := s.reservationRepo.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return ErrReservationNotFound
		}

		switch reservation.Status {
		case models.StatusReserved, models.StatusCheckedIn:
			// cancellable
		case models.StatusCancelled:
			return ErrAlreadyCancelled
		default:
			return ErrNotCancellable
		}

		// Lock the slot row before releasing the flag so the cancel and the
		// flag write commit together
		if _, err := s.slotRepo.FindByIDForUpdate(ctx, tx, reservation.SlotID); err != nil {
			return err
		}

		reservation.Status = models.StatusCancelled
		if err := s.reservationRepo.Save(ctx, tx, reservation); err != nil {
			return err
		}
		if err := s.slotRepo.SetAvailability(ctx, tx, reservation.SlotID, true); err != nil {
			return err
		}

		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("reservation.cancelled", result)
	}

	return result, nil
}

func (s *reservationService) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	return s.reservationRepo.FindByID(ctx, id)
}

func (s *reservationService) ListByUser(ctx context.Context, userID string, status *models.ReservationStatus) ([]models.Reservation, error) {
	return s.reservationRepo.FindByUserID(ctx, userID, status)
}

func (s *reservationService) ListBySlot(ctx context.Context, slotID uint, status *models.ReservationStatus) ([]models.Reservation, error) {
	return s.reservationRepo.FindBySlotID(ctx, slotID, status)
}
