package models

import "time"

// ReservationStatus enumerates the reservation state machine.
type ReservationStatus string

const (
	ReservationPending         ReservationStatus = "PENDING"
	ReservationAwaitingPayment ReservationStatus = "AWAITING_PAYMENT"
	ReservationConfirmed       ReservationStatus = "CONFIRMED"
	ReservationCompleted       ReservationStatus = "COMPLETED"
	ReservationCancelled       ReservationStatus = "CANCELLED"
)

// Reservation is a user's claim on a slot, progressing through validation
// and payment.
type Reservation struct {
	ID             string            `bson:"id" json:"id"`
	ProfessionalID string            `bson:"professional_id" json:"professionalId"`
	UserID         string            `bson:"user_id" json:"userId"`
	Date           string            `bson:"date" json:"date"`   // "2006-01-02"
	Start          int               `bson:"start" json:"start"` // minutes from midnight
	Duration       int               `bson:"duration" json:"duration"`
	Status         ReservationStatus `bson:"status" json:"status"`
	Price          float64           `bson:"price" json:"price"`
	PaymentRef     string            `bson:"payment_ref,omitempty" json:"paymentRef,omitempty"`
	// Active carries the unique slot-key index: it is true for every
	// non-cancelled status and flipped to false exactly when the
	// reservation is cancelled, freeing the (professional, date, start) key.
	Active    bool      `bson:"active" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Occupies reports whether the reservation blocks its slot key from being
// re-offered. Policy: every non-cancelled status occupies.
func (r *Reservation) Occupies() bool {
	return r.Status != ReservationCancelled
}

// CreateReservationRequest defines the payload for booking a slot.
type CreateReservationRequest struct {
	ProfessionalID string `json:"professionalId" binding:"required"`
	Date           string `json:"date" binding:"required"`
	Start          int    `json:"start" binding:"min=0,max=1440"`
	Duration       int    `json:"duration" binding:"required,min=1"`
}
