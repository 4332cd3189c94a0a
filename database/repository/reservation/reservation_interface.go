package reservationRepo

import (
	"context"
	"errors"
	"time"

	"mindbridge/models"
)

var (
	// ErrDuplicateSlot is returned by Create when another active reservation
	// already holds the (professional, date, start) key.
	ErrDuplicateSlot = errors.New("slot key already reserved")
	// ErrNotFound is returned when no reservation matches the given id.
	ErrNotFound = errors.New("reservation not found")
)

// TransitionUpdate carries the optional field updates applied together with a
// status transition, under the same conditional write.
type TransitionUpdate struct {
	PaymentRef *string
	Active     *bool
}

// ReservationRepository defines methods for reservation data access. The
// collection carries a unique partial index on (professional_id, date, start)
// filtered to active reservations: it is the single serialization point for
// slot occupancy.
type ReservationRepository interface {
	// Create inserts a new reservation record. Returns ErrDuplicateSlot if
	// the slot key is already held by an active reservation.
	Create(ctx context.Context, res *models.Reservation) error
	// GetByID retrieves a reservation by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	// Transition atomically moves a reservation from one of the given
	// statuses to the target status, applying upd in the same write.
	// Returns false when no document matched (wrong state or unknown id).
	Transition(ctx context.Context, id string, from []models.ReservationStatus, to models.ReservationStatus, upd TransitionUpdate) (bool, error)
	// OccupiedStarts returns the start minutes held by active reservations
	// for the professional on the given date.
	OccupiedStarts(ctx context.Context, professionalID, date string) ([]int, error)
	// ListByUser retrieves a user's reservations, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Reservation, error)
	// ListByProfessionalDate retrieves reservations on a professional's
	// calendar date, ordered by start minute.
	ListByProfessionalDate(ctx context.Context, professionalID, date string) ([]models.Reservation, error)
	// StaleAwaiting returns reservations still AWAITING_PAYMENT whose last
	// update predates the cutoff.
	StaleAwaiting(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
}
