package models

import "time"

type Slot struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Label   string `gorm:"not null;uniqueIndex" json:"label"`
	Zone    string `gorm:"not null" json:"zone"`
	Enabled bool   `gorm:"not null;default:true" json:"enabled"`

	// IsAvailable is a display cache derived from the reservation table.
	// Conflict detection never reads it; it is written only inside the
	// same transaction as the reservation change that justifies it.
	IsAvailable bool `gorm:"not null;default:true" json:"is_available"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
