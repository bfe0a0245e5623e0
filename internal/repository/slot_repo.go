package repository

import (
	"context"

	"github.com/slotwise/parking-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SlotRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Slot, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Slot, error)
	FindAll(ctx context.Context, zone string) ([]models.Slot, error)
	SetAvailability(ctx context.Context, tx *gorm.DB, id uint, available bool) error
}

type slotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) SlotRepository {
	return &slotRepository{db: db}
}

func (r *slotRepository) FindByID(ctx context.Context, id uint) (*models.Slot, error) {
	var slot models.Slot
	if err := r.db.WithContext(ctx).First(&slot, id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// FindByIDForUpdate acquires a row-level lock on the slot within the given
// transaction. Every reservation attempt for a slot goes through this lock,
// which serializes the conflict-check-then-insert sequence per slot.
func (r *slotRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Slot, error) {
	var slot models.Slot
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&slot, id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) FindAll(ctx context.Context, zone string) ([]models.Slot, error) {
	var slots []models.Slot
	q := r.db.WithContext(ctx)
	if zone != "" {
		q = q.Where("zone = ?", zone)
	}
	if err := q.Order("label ASC").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

// SetAvailability writes the display cache flag. Callers must invoke it
// inside the same transaction as the reservation state change that
// justifies the write.
func (r *slotRepository) SetAvailability(ctx context.Context, tx *gorm.DB, id uint, available bool) error {
	return tx.WithContext(ctx).
		Model(&models.Slot{}).
		Where("id = ?", id).
		Update("is_available", available).Error
}
