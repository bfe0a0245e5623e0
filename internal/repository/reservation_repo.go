package repository

import (
	"context"
	"time"

	"github.com/slotwise/parking-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error
	FindByID(ctx context.Context, id uint) (*models.Reservation, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Reservation, error)
	FindOverlapping(ctx context.Context, tx *gorm.DB, slotID uint, start, end time.Time) ([]models.Reservation, error)
	FindByUserID(ctx context.Context, userID string, status *models.ReservationStatus) ([]models.Reservation, error)
	FindBySlotID(ctx context.Context, slotID uint, status *models.ReservationStatus) ([]models.Reservation, error)
	Save(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error
	ApplyLatePenalties(ctx context.Context, overdueBefore time.Time, fee int64, now time.Time) (int64, error)
	MarkNoShows(ctx context.Context, now time.Time) (int64, error)
	GetDB() *gorm.DB
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	return tx.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindByIDForUpdate locks the reservation row for the duration of the
// transaction. Lifecycle transitions and settlement both go through this
// lock so concurrent calls on the same reservation serialize.
func (r *reservationRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reservation, id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindOverlapping returns every non-cancelled reservation on the slot whose
// requested window overlaps [start, end). This recomputes conflicts from
// stored intervals; the slot's availability flag is never consulted.
func (r *reservationRepository) FindOverlapping(ctx context.Context, tx *gorm.DB, slotID uint, start, end time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := tx.WithContext(ctx).
		Where("slot_id = ? AND status <> ? AND start_time < ? AND end_time > ?",
			slotID, models.StatusCancelled, end, start).
		Order("start_time ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) FindByUserID(ctx context.Context, userID string, status *models.ReservationStatus) ([]models.Reservation, error) {
	var reservations []models.Reservation
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("start_time DESC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) FindBySlotID(ctx context.Context, slotID uint, status *models.ReservationStatus) ([]models.Reservation, error) {
	var reservations []models.Reservation
	q := r.db.WithContext(ctx).Where("slot_id = ?", slotID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("start_time DESC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) Save(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	return tx.WithContext(ctx).Save(reservation).Error
}

// ApplyLatePenalties stamps the fixed late-payment fee onto every
// checked-out reservation whose check-out is older than overdueBefore and
// that carries no penalty yet. The zero-penalty guard lives in the WHERE
// clause, so running the sweep twice cannot double-apply the fee.
func (r *reservationRepository) ApplyLatePenalties(ctx context.Context, overdueBefore time.Time, fee int64, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("status = ? AND check_out_at < ? AND penalty_amount = 0",
			models.StatusCheckedOut, overdueBefore).
		Updates(map[string]interface{}{
			"penalty_amount":     fee,
			"penalty_kind":       models.PenaltyLatePayment,
			"penalty_applied_at": now,
		})
	return result.RowsAffected, result.Error
}

// MarkNoShows transitions reserved reservations whose window elapsed with
// no check-in to no_show. Idempotent: already-stamped rows no longer match.
func (r *reservationRepository) MarkNoShows(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("status = ? AND check_in_at IS NULL AND end_time < ?",
			models.StatusReserved, now).
		Update("status", models.StatusNoShow)
	return result.RowsAffected, result.Error
}
