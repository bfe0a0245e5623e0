package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/slotwise/parking-service/internal/dto"
	"github.com/slotwise/parking-service/internal/repository"
)

type SlotHandler struct {
	slotRepo repository.SlotRepository
}

func NewSlotHandler(slotRepo repository.SlotRepository) *SlotHandler {
	return &SlotHandler{slotRepo: slotRepo}
}

// RegisterRoutes wires the public slot listing. The optional cache
// middleware keeps the hot status endpoint off the database.
func (h *SlotHandler) RegisterRoutes(g *echo.Group, cache echo.MiddlewareFunc) {
	if cache != nil {
		g.GET("/slots", h.ListSlots, cache)
	} else {
		g.GET("/slots", h.ListSlots)
	}
}

// ListSlots returns every slot with its availability flag. The flag is a
// display cache maintained by the reservation and billing transactions.
func (h *SlotHandler) ListSlots(c echo.Context) error {
	slots, err := h.slotRepo.FindAll(c.Request().Context(), c.QueryParam("zone"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := dto.SlotListResponse{
		Slots: make([]dto.SlotResponse, len(slots)),
		Total: len(slots),
	}
	for i := range slots {
		resp.Slots[i] = dto.ToSlotResponse(&slots[i])
		if slots[i].IsAvailable && slots[i].Enabled {
			resp.Available++
		}
	}

	return c.JSON(http.StatusOK, resp)
}
