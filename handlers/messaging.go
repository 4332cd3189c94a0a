package handlers

import (
	"errors"
	"io"
	"net/http"

	"mindbridge/middleware"
	"mindbridge/models"
	"mindbridge/services/channel"

	"github.com/gin-gonic/gin"
)

// MessagingHandler exposes consultation messaging: history, send, and a
// server-sent-events stream for live delivery.
type MessagingHandler struct {
	Channel channel.ChannelService
}

func NewMessagingHandler(ch channel.ChannelService) *MessagingHandler {
	return &MessagingHandler{Channel: ch}
}

// SendMessage posts a message to a consultation. A 2xx response is the
// delivery acknowledgement.
func (h *MessagingHandler) SendMessage(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	msg, err := h.Channel.SendMessage(c.Request.Context(), c.Param("id"), who, req)
	if err != nil {
		respondChannelError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// History returns all persisted messages for a consultation. Clients call it
// once at subscribe time; the live stream never replays history.
func (h *MessagingHandler) History(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	messages, err := h.Channel.History(c.Request.Context(), c.Param("id"), who)
	if err != nil {
		respondChannelError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// GetConsultationForReservation resolves the consultation opened when the
// caller's reservation was paid.
func (h *MessagingHandler) GetConsultationForReservation(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	cons, err := h.Channel.ConsultationForReservation(c.Request.Context(), c.Param("id"), who)
	if err != nil {
		respondChannelError(c, err)
		return
	}
	c.JSON(http.StatusOK, cons)
}

// StreamConsultation delivers live messages over SSE. The stream ends when
// the transport drops; the client reconnects to resubscribe.
func (h *MessagingHandler) StreamConsultation(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	stream, err := h.Channel.Subscribe(c.Request.Context(), c.Param("id"), who)
	if err != nil {
		respondChannelError(c, err)
		return
	}
	defer stream.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, open := <-stream.C:
			if !open {
				return false
			}
			c.SSEvent("message", msg)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// respondChannelError maps channel errors onto HTTP responses.
func respondChannelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, channel.ErrConsultationClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "consultation is closed", "code": "CONSULTATION_CLOSED"})
	case errors.Is(err, channel.ErrConsultationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "consultation not found", "code": "NOT_FOUND"})
	case errors.Is(err, channel.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant", "code": "NOT_PARTICIPANT"})
	case errors.Is(err, channel.ErrDisconnected):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "channel unavailable, retry", "code": "CHANNEL_DISCONNECTED"})
	default:
		respondReservationError(c, err)
	}
}
