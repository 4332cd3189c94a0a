package reservation

import (
	"context"
	"time"

	"mindbridge/models"
)

// ReservationService owns the reservation state machine and the
// slot-occupancy invariant. It is the only component that mutates
// reservations; the payment orchestrator goes through MarkAwaitingPayment
// and ConfirmPayment, never through storage directly.
type ReservationService interface {
	// CreateReservation claims a slot for the caller. At most one call per
	// (professional, date, start) key can commit; the rest observe
	// ErrSlotConflict.
	CreateReservation(ctx context.Context, slot models.Slot, who models.Identity) (*models.Reservation, error)
	// GetReservation retrieves a reservation by id.
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	// ListUserReservations lists the caller's reservations, newest first.
	ListUserReservations(ctx context.Context, who models.Identity) ([]models.Reservation, error)
	// ListCalendar lists reservations on the professional's calendar date.
	ListCalendar(ctx context.Context, who models.Identity, date string) ([]models.Reservation, error)
	// CancelReservation cancels a PENDING or AWAITING_PAYMENT reservation
	// held by the requester and frees the slot key immediately.
	CancelReservation(ctx context.Context, id string, who models.Identity) error
	// MarkAwaitingPayment performs the validate transition
	// (PENDING -> AWAITING_PAYMENT) and arms the expiry timer. Called only
	// by the payment orchestrator.
	MarkAwaitingPayment(ctx context.Context, id string) error
	// ConfirmPayment performs AWAITING_PAYMENT -> CONFIRMED and creates the
	// consultation, exactly once. Re-applying the same paymentRef is a
	// no-op success. Called only by the payment orchestrator.
	ConfirmPayment(ctx context.Context, id, paymentRef string) error
	// CompleteReservation marks a held consultation's reservation COMPLETED.
	CompleteReservation(ctx context.Context, id string, who models.Identity) error
	// ExpireOne cancels a single reservation still unpaid. Idempotent.
	ExpireOne(ctx context.Context, id string) error
	// ExpireStale sweeps every reservation unpaid past the window. Returns
	// the number of reservations expired.
	ExpireStale(ctx context.Context, now time.Time) (int, error)
}

// ExpiryScheduler arms a deferred expiry check for a reservation entering
// AWAITING_PAYMENT. The cron sweep backstops lost tasks.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, reservationID string, after time.Duration) error
}

// NoopExpiryScheduler relies on the periodic sweep alone.
type NoopExpiryScheduler struct{}

func (NoopExpiryScheduler) ScheduleExpiry(context.Context, string, time.Duration) error {
	return nil
}
