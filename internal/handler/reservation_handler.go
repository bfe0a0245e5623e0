package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/slotwise/parking-service/internal/dto"
	"github.com/slotwise/parking-service/internal/middleware"
	"github.com/slotwise/parking-service/internal/models"
	"github.com/slotwise/parking-service/internal/service"
)

type ReservationHandler struct {
	svc service.ReservationService
}

func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

func (h *ReservationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/slots/:id/reservations", h.CreateReservation)
	g.GET("/slots/:id/reservations", h.ListSlotReservations)

	g.GET("/reservations/:id", h.GetReservation)
	g.DELETE("/reservations/:id", h.CancelReservation)
	g.PATCH("/reservations/:id/check-in", h.CheckIn)
	g.PATCH("/reservations/:id/check-out", h.CheckOut)

	g.GET("/users/:id/reservations", h.ListUserReservations)
}

func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	slotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid slot id")
	}

	var req dto.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.VehiclePlate == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "vehicle_plate is required")
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "start_time and end_time are required")
	}

	reservation, err := h.svc.Reserve(c.Request().Context(), uint(slotID), middleware.RequesterID(c), req.VehiclePlate, req.StartTime, req.EndTime)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInterval), errors.Is(err, service.ErrSlotDisabled):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSlotNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSlotConflict):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	reservation, err := h.svc.GetReservation(c.Request().Context(), uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "reservation not found")
	}
	if !canAccess(c, reservation) {
		return echo.NewHTTPError(http.StatusForbidden, "not your reservation")
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	existing, err := h.svc.GetReservation(c.Request().Context(), uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "reservation not found")
	}
	if !canAccess(c, existing) {
		return echo.NewHTTPError(http.StatusForbidden, "not your reservation")
	}

	reservation, err := h.svc.Cancel(c.Request().Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReservationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyCancelled):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrNotCancellable):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) CheckIn(c echo.Context) error {
	return h.occupancyEvent(c, h.svc.CheckIn)
}

func (h *ReservationHandler) CheckOut(c echo.Context) error {
	return h.occupancyEvent(c, h.svc.CheckOut)
}

// occupancyEvent handles check-in and check-out, which differ only in the
// service transition they apply.
func (h *ReservationHandler) occupancyEvent(c echo.Context, apply func(ctx context.Context, id uint, at time.Time) (*models.Reservation, error)) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	existing, err := h.svc.GetReservation(c.Request().Context(), uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "reservation not found")
	}
	if !canAccess(c, existing) {
		return echo.NewHTTPError(http.StatusForbidden, "not your reservation")
	}

	var req dto.OccupancyEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	reservation, err := apply(c.Request().Context(), uint(id), eventTime(req))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReservationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyCheckedIn),
			errors.Is(err, service.ErrNotCheckedIn),
			errors.Is(err, service.ErrCheckInTooEarly),
			errors.Is(err, service.ErrCheckInClosed):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) ListUserReservations(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if middleware.RequesterID(c) != userID && middleware.RequesterRole(c) != "admin" {
		return echo.NewHTTPError(http.StatusForbidden, "not your reservation history")
	}

	status, err := statusFilter(c)
	if err != nil {
		return err
	}

	reservations, err := h.svc.ListByUser(c.Request().Context(), userID, status)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, toReservationList(reservations))
}

func (h *ReservationHandler) ListSlotReservations(c echo.Context) error {
	slotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid slot id")
	}

	status, err := statusFilter(c)
	if err != nil {
		return err
	}

	reservations, err := h.svc.ListBySlot(c.Request().Context(), uint(slotID), status)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, toReservationList(reservations))
}

func statusFilter(c echo.Context) (*models.ReservationStatus, error) {
	s := c.QueryParam("status")
	if s == "" {
		return nil, nil
	}
	rs := models.ReservationStatus(s)
	return &rs, nil
}

func toReservationList(reservations []models.Reservation) []dto.ReservationResponse {
	resp := make([]dto.ReservationResponse, len(reservations))
	for i := range reservations {
		resp[i] = dto.ToReservationResponse(&reservations[i])
	}
	return resp
}

func canAccess(c echo.Context, r *models.Reservation) bool {
	return middleware.RequesterID(c) == r.UserID || middleware.RequesterRole(c) == "admin"
}

func eventTime(req dto.OccupancyEventRequest) time.Time {
	if req.At != nil {
		return *req.At
	}
	return time.Now()
}
