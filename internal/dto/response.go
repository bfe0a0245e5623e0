package dto

import (
	"time"

	"github.com/slotwise/parking-service/internal/models"
	"github.com/slotwise/parking-service/internal/service"
)

type ReservationResponse struct {
	ID            uint                     `json:"id"`
	SlotID        uint                     `json:"slot_id"`
	UserID        string                   `json:"user_id"`
	VehiclePlate  string                   `json:"vehicle_plate"`
	StartTime     time.Time                `json:"start_time"`
	EndTime       time.Time                `json:"end_time"`
	CheckInAt     *time.Time               `json:"check_in_at,omitempty"`
	CheckOutAt    *time.Time               `json:"check_out_at,omitempty"`
	UsageMinutes  int                      `json:"usage_minutes"`
	Status        models.ReservationStatus `json:"status"`
	Slabs         int                      `json:"slabs"`
	Charge        int64                    `json:"charge"`
	PenaltyAmount int64                    `json:"penalty_amount"`
	PenaltyKind   models.PenaltyKind       `json:"penalty_kind"`
	PaymentID     *uint                    `json:"payment_id,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

type PaymentResponse struct {
	ID            uint                 `json:"id"`
	ReservationID uint                 `json:"reservation_id"`
	Charge        int64                `json:"charge"`
	PenaltyAmount int64                `json:"penalty_amount"`
	PenaltyKind   models.PenaltyKind   `json:"penalty_kind"`
	Slabs         int                  `json:"slabs"`
	UsageMinutes  int                  `json:"usage_minutes"`
	Amount        int64                `json:"amount"`
	Method        models.PaymentMethod `json:"method"`
	SettledAt     time.Time            `json:"settled_at"`
}

type PreviewResponse struct {
	ReservationID uint                     `json:"reservation_id"`
	Status        models.ReservationStatus `json:"status"`
	UsageMinutes  int                      `json:"usage_minutes"`
	IsNoShow      bool                     `json:"is_no_show"`
	Slabs         int                      `json:"slabs"`
	Charge        int64                    `json:"charge"`
	Penalty       int64                    `json:"penalty"`
	PenaltyKind   models.PenaltyKind       `json:"penalty_kind"`
	TotalDue      int64                    `json:"total_due"`
}

type SlotResponse struct {
	ID          uint   `json:"id"`
	Label       string `json:"label"`
	Zone        string `json:"zone"`
	Enabled     bool   `json:"enabled"`
	IsAvailable bool   `json:"is_available"`
}

type SlotListResponse struct {
	Slots     []SlotResponse `json:"slots"`
	Total     int            `json:"total"`
	Available int            `json:"available"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToReservationResponse(r *models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:            r.ID,
		SlotID:        r.SlotID,
		UserID:        r.UserID,
		VehiclePlate:  r.VehiclePlate,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		CheckInAt:     r.CheckInAt,
		CheckOutAt:    r.CheckOutAt,
		UsageMinutes:  r.UsageMinutes,
		Status:        r.Status,
		Slabs:         r.Slabs,
		Charge:        r.Charge,
		PenaltyAmount: r.PenaltyAmount,
		PenaltyKind:   r.PenaltyKind,
		PaymentID:     r.PaymentID,
		CreatedAt:     r.CreatedAt,
	}
}

func ToPaymentResponse(p *models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		ReservationID: p.ReservationID,
		Charge:        p.Charge,
		PenaltyAmount: p.PenaltyAmount,
		PenaltyKind:   p.PenaltyKind,
		Slabs:         p.Slabs,
		UsageMinutes:  p.UsageMinutes,
		Amount:        p.Amount,
		Method:        p.Method,
		SettledAt:     p.SettledAt,
	}
}

func ToPreviewResponse(p *service.FeePreview) PreviewResponse {
	return PreviewResponse{
		ReservationID: p.ReservationID,
		Status:        p.Status,
		UsageMinutes:  p.UsageMinutes,
		IsNoShow:      p.IsNoShow,
		Slabs:         p.Quote.Slabs,
		Charge:        p.Quote.Charge,
		Penalty:       p.Quote.Penalty,
		PenaltyKind:   p.Quote.PenaltyKind,
		TotalDue:      p.TotalDue,
	}
}

func ToSlotResponse(s *models.Slot) SlotResponse {
	return SlotResponse{
		ID:          s.ID,
		Label:       s.Label,
		Zone:        s.Zone,
		Enabled:     s.Enabled,
		IsAvailable: s.IsAvailable,
	}
}
