package handlers

import (
	"errors"
	"io"
	"net/http"

	"mindbridge/middleware"
	"mindbridge/services/payment"

	"github.com/gin-gonic/gin"
)

// PaymentHandler exposes payment initiation and the provider webhook.
type PaymentHandler struct {
	Orchestrator payment.PaymentOrchestrator
}

func NewPaymentHandler(orc payment.PaymentOrchestrator) *PaymentHandler {
	return &PaymentHandler{Orchestrator: orc}
}

// InitiatePayment opens a provider payment session for a reservation.
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req struct {
		ReservationID string `json:"reservationId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	handle, err := h.Orchestrator.InitiatePayment(c.Request.Context(), req.ReservationID, who)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentProvider) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable", "code": "PAYMENT_PROVIDER_ERROR"})
			return
		}
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, handle)
}

// Webhook receives asynchronous provider events. The orchestrator verifies
// authenticity before anything touches reservation state.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.Orchestrator.Reconcile(c.Request.Context(), payload, signature); err != nil {
		if errors.Is(err, payment.ErrPaymentVerification) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "verification failed", "code": "PAYMENT_VERIFICATION_FAILED"})
			return
		}
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
