package dto

import (
	"time"

	"github.com/slotwise/parking-service/internal/models"
)

// Requests carry identifiers, timestamps and a method tag only. All
// monetary fields are server-computed; there is no client override path.

type CreateReservationRequest struct {
	VehiclePlate string    `json:"vehicle_plate"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// OccupancyEventRequest covers check-in and check-out. At is optional;
// when absent the server clock is used.
type OccupancyEventRequest struct {
	At *time.Time `json:"at,omitempty"`
}

type SettleRequest struct {
	Method models.PaymentMethod `json:"method"`
}
