package models

import "time"

type ReservationStatus string

const (
	StatusReserved   ReservationStatus = "reserved"
	StatusCheckedIn  ReservationStatus = "checked_in"
	StatusCheckedOut ReservationStatus = "checked_out"
	StatusNoShow     ReservationStatus = "no_show"
	StatusCancelled  ReservationStatus = "cancelled"
	StatusSettled    ReservationStatus = "settled"
)

type PenaltyKind string

const (
	PenaltyNone        PenaltyKind = "none"
	PenaltyNoShow      PenaltyKind = "no-show"
	PenaltyLatePayment PenaltyKind = "late-payment"
)

type Reservation struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	SlotID       uint              `gorm:"not null;index" json:"slot_id"`
	UserID       string            `gorm:"not null;index" json:"user_id"`
	VehiclePlate string            `gorm:"not null" json:"vehicle_plate"`
	StartTime    time.Time         `gorm:"not null" json:"start_time"`
	EndTime      time.Time         `gorm:"not null" json:"end_time"`
	CheckInAt    *time.Time        `json:"check_in_at,omitempty"`
	CheckOutAt   *time.Time        `json:"check_out_at,omitempty"`
	UsageMinutes int               `gorm:"not null;default:0" json:"usage_minutes"`
	Status       ReservationStatus `gorm:"type:varchar(20);not null;default:'reserved';index" json:"status"`

	// Billing fields are server-computed at settlement; once a Payment row
	// exists it is the authoritative record and these are a copy of it.
	Slabs            int         `gorm:"not null;default:0" json:"slabs"`
	Charge           int64       `gorm:"not null;default:0" json:"charge"`
	PenaltyAmount    int64       `gorm:"not null;default:0" json:"penalty_amount"`
	PenaltyKind      PenaltyKind `gorm:"type:varchar(20);not null;default:'none'" json:"penalty_kind"`
	PenaltyAppliedAt *time.Time  `json:"penalty_applied_at,omitempty"`
	PaymentID        *uint       `json:"payment_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Slot *Slot `gorm:"foreignKey:SlotID" json:"slot,omitempty"`
}

// Interval returns the requested booking window.
func (r *Reservation) Interval() Interval {
	return Interval{Start: r.StartTime, End: r.EndTime}
}

// IsNoShowAt reports whether the holder never checked in before the
// requested window elapsed. A reservation can be a no-show logically
// before the sweeper stamps StatusNoShow onto the row.
func (r *Reservation) IsNoShowAt(now time.Time) bool {
	if r.Status == StatusNoShow {
		return true
	}
	return r.Status == StatusReserved && r.CheckInAt == nil && now.After(r.EndTime)
}

// Active reports whether the reservation still blocks its slot.
func (r *Reservation) Active() bool {
	return r.Status != StatusCancelled
}
