package handlers

import (
	"errors"
	"net/http"

	availabilityRepo "mindbridge/database/repository/availability"
	"mindbridge/middleware"
	"mindbridge/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AvailabilityHandler lets professionals manage their availability blocks.
// The reservation core reads these; only their owner writes them.
type AvailabilityHandler struct {
	Repo availabilityRepo.AvailabilityRepository
}

func NewAvailabilityHandler(repo availabilityRepo.AvailabilityRepository) *AvailabilityHandler {
	return &AvailabilityHandler{Repo: repo}
}

// DeclareAvailability creates an availability block for the caller.
func (h *AvailabilityHandler) DeclareAvailability(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok || !who.IsProfessional() {
		c.JSON(http.StatusForbidden, gin.H{"error": "professionals only"})
		return
	}

	var req models.SetupAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if req.End <= req.Start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be after start"})
		return
	}

	block := &models.AvailabilityBlock{
		ID:             uuid.New().String(),
		ProfessionalID: who.UserID,
		Date:           req.Date,
		Start:          req.Start,
		End:            req.End,
	}
	if err := h.Repo.Create(c.Request.Context(), block); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save availability", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, block)
}

// ListAvailability returns the caller's blocks for a date.
func (h *AvailabilityHandler) ListAvailability(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok || !who.IsProfessional() {
		c.JSON(http.StatusForbidden, gin.H{"error": "professionals only"})
		return
	}

	blocks, err := h.Repo.ListByProfessionalDate(c.Request.Context(), who.UserID, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list availability", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, blocks)
}

// DeleteAvailability removes one of the caller's blocks.
func (h *AvailabilityHandler) DeleteAvailability(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok || !who.IsProfessional() {
		c.JSON(http.StatusForbidden, gin.H{"error": "professionals only"})
		return
	}

	id := c.Param("id")
	block, err := h.Repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, availabilityRepo.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "availability block not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch availability", "details": err.Error()})
		return
	}
	if block.ProfessionalID != who.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your availability block"})
		return
	}

	if err := h.Repo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete availability", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
