package notification

import (
	"context"

	"go.uber.org/zap"
)

// Event describes a state change the reservation core wants to announce.
// Delivery (push, email, in-app) is owned by the embedding application, not
// by this core: callers plug in their own Emitter.
type Event struct {
	Type           string         `json:"type"` // e.g., "reservation.confirmed"
	ReservationID  string         `json:"reservationId,omitempty"`
	ConsultationID string         `json:"consultationId,omitempty"`
	UserID         string         `json:"userId,omitempty"`
	ProfessionalID string         `json:"professionalId,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

const (
	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationExpired   = "reservation.expired"
	EventReservationCompleted = "reservation.completed"
)

// Emitter receives core events. Implementations must not block: slow
// delivery belongs in the implementation, not on the booking path.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

// LogEmitter is the default Emitter; it only writes structured logs.
type LogEmitter struct {
	Logger *zap.Logger
}

func (e *LogEmitter) Emit(_ context.Context, ev Event) {
	e.Logger.Info("core event",
		zap.String("type", ev.Type),
		zap.String("reservationId", ev.ReservationID),
		zap.String("consultationId", ev.ConsultationID),
	)
}
