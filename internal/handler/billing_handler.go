package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/slotwise/parking-service/internal/dto"
	"github.com/slotwise/parking-service/internal/service"
)

type BillingHandler struct {
	svc            service.BillingService
	reservationSvc service.ReservationService
}

func NewBillingHandler(svc service.BillingService, reservationSvc service.ReservationService) *BillingHandler {
	return &BillingHandler{svc: svc, reservationSvc: reservationSvc}
}

func (h *BillingHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/reservations/:id/preview", h.Preview)
	g.POST("/reservations/:id/payment", h.Settle)
	g.GET("/reservations/:id/payment", h.GetPayment)
}

// Preview returns a live fee estimate without committing anything.
func (h *BillingHandler) Preview(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	if err := h.authorize(c, uint(id)); err != nil {
		return err
	}

	preview, err := h.svc.Preview(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToPreviewResponse(preview))
}

func (h *BillingHandler) Settle(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	if err := h.authorize(c, uint(id)); err != nil {
		return err
	}

	var req dto.SettleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	payment, err := h.svc.Settle(c.Request().Context(), uint(id), req.Method)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPaymentMethod):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrReservationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadySettled):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrNotReadyForSettlement):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToPaymentResponse(payment))
}

// GetPayment returns the receipt once a reservation has settled.
func (h *BillingHandler) GetPayment(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	if err := h.authorize(c, uint(id)); err != nil {
		return err
	}

	payment, err := h.svc.GetPayment(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

func (h *BillingHandler) authorize(c echo.Context, reservationID uint) error {
	reservation, err := h.reservationSvc.GetReservation(c.Request().Context(), reservationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "reservation not found")
	}
	if !canAccess(c, reservation) {
		return echo.NewHTTPError(http.StatusForbidden, "not your reservation")
	}
	return nil
}
