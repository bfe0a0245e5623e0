package database

import (
	"log"

	"github.com/slotwise/parking-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Slot{}, &models.Reservation{}, &models.Payment{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Backstop for the exactly-once settlement guarantee: at most one
	// payment row per reservation, enforced by the database itself
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_reservation
		ON payments (reservation_id)
	`)

	// Conflict queries scan a slot's non-cancelled reservations by window
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservation_slot_window
		ON reservations (slot_id, start_time, end_time)
		WHERE status <> 'cancelled'
	`)

	return db
}
