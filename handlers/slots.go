package handlers

import (
	"net/http"

	"mindbridge/services/scheduling"

	"github.com/gin-gonic/gin"
)

// SlotHandler exposes bookable-slot listings.
type SlotHandler struct {
	Slots scheduling.SlotService
}

func NewSlotHandler(slots scheduling.SlotService) *SlotHandler {
	return &SlotHandler{Slots: slots}
}

// ListBookableSlots returns the open slots for a professional on a date.
func (h *SlotHandler) ListBookableSlots(c *gin.Context) {
	professionalID := c.Param("professionalId")
	date := c.Param("date")

	slots, err := h.Slots.ListBookableSlots(c.Request.Context(), professionalID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute slots", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"professionalId": professionalID,
		"date":           date,
		"slots":          slots,
	})
}
