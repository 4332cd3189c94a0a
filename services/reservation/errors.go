package reservation

import "errors"

var (
	// ErrSlotConflict means another reservation holds the slot key. The
	// caller lost a booking race; recoverable by fetching a fresh slot list.
	ErrSlotConflict = errors.New("slot already reserved")

	// ErrInvalidTransition means an illegal state change was attempted.
	// Surfaced to the caller directly; never retried.
	ErrInvalidTransition = errors.New("invalid reservation state transition")

	// ErrNotOwner means the requester does not hold the reservation.
	ErrNotOwner = errors.New("requester does not own this reservation")

	// ErrNotFound means no reservation matches the given id.
	ErrNotFound = errors.New("reservation not found")
)
