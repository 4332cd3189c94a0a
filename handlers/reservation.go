package handlers

import (
	"errors"
	"net/http"

	"mindbridge/middleware"
	"mindbridge/models"
	"mindbridge/services/reservation"

	"github.com/gin-gonic/gin"
)

// ReservationHandler exposes reservation booking and lifecycle endpoints.
type ReservationHandler struct {
	Service reservation.ReservationService
}

func NewReservationHandler(svc reservation.ReservationService) *ReservationHandler {
	return &ReservationHandler{Service: svc}
}

// CreateReservation books a slot for the caller.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	slot := models.Slot{
		ProfessionalID: req.ProfessionalID,
		Date:           req.Date,
		Start:          req.Start,
		Duration:       req.Duration,
	}
	res, err := h.Service.CreateReservation(c.Request.Context(), slot, who)
	if err != nil {
		respondReservationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// GetReservation returns one reservation visible to the caller.
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	res, err := h.Service.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondReservationError(c, err)
		return
	}
	if res.UserID != who.UserID && res.ProfessionalID != who.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your reservation"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListMyReservations returns the caller's reservations, newest first.
func (h *ReservationHandler) ListMyReservations(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	out, err := h.Service.ListUserReservations(c.Request.Context(), who)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reservations", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListCalendar returns the professional's reservations for a date.
func (h *ReservationHandler) ListCalendar(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok || !who.IsProfessional() {
		c.JSON(http.StatusForbidden, gin.H{"error": "professionals only"})
		return
	}

	out, err := h.Service.ListCalendar(c.Request.Context(), who, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list calendar", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// CancelReservation cancels the caller's reservation and frees its slot.
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	if err := h.Service.CancelReservation(c.Request.Context(), c.Param("id"), who); err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": c.Param("id")})
}

// CompleteReservation marks the consultation as held.
func (h *ReservationHandler) CompleteReservation(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	if err := h.Service.CompleteReservation(c.Request.Context(), c.Param("id"), who); err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": c.Param("id")})
}

// respondReservationError maps domain errors onto HTTP responses.
func respondReservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reservation.ErrSlotConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "slot already reserved", "code": "SLOT_CONFLICT"})
	case errors.Is(err, reservation.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid reservation state", "code": "INVALID_TRANSITION"})
	case errors.Is(err, reservation.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not your reservation", "code": "NOT_OWNER"})
	case errors.Is(err, reservation.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found", "code": "NOT_FOUND"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": err.Error()})
	}
}
