package models

import "time"

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "card"
	MethodUPI    PaymentMethod = "upi"
	MethodWallet PaymentMethod = "wallet"
)

// ValidMethod reports whether m is one of the accepted payment methods.
func ValidMethod(m PaymentMethod) bool {
	switch m {
	case MethodCard, MethodUPI, MethodWallet:
		return true
	}
	return false
}

// Payment is the immutable receipt produced exactly once per reservation.
// Rows are inserted at settlement and never updated or deleted.
type Payment struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	ReservationID uint          `gorm:"not null;uniqueIndex" json:"reservation_id"`
	Charge        int64         `gorm:"not null" json:"charge"`
	PenaltyAmount int64         `gorm:"not null" json:"penalty_amount"`
	PenaltyKind   PenaltyKind   `gorm:"type:varchar(20);not null;default:'none'" json:"penalty_kind"`
	Slabs         int           `gorm:"not null" json:"slabs"`
	UsageMinutes  int           `gorm:"not null" json:"usage_minutes"`
	Amount        int64         `gorm:"not null" json:"amount"`
	Method        PaymentMethod `gorm:"type:varchar(10);not null" json:"method"`
	SettledAt     time.Time     `gorm:"not null" json:"settled_at"`
	CreatedAt     time.Time     `json:"created_at"`
}
