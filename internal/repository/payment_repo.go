package repository

import (
	"context"

	"github.com/slotwise/parking-service/internal/models"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	FindByReservationID(ctx context.Context, reservationID uint) (*models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts the receipt. The unique index on reservation_id backstops
// the exactly-once guarantee under concurrent settlement attempts.
func (r *paymentRepository) Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) FindByReservationID(ctx context.Context, reservationID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}
