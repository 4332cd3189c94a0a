package models

import "time"

// Consultation is the realized, confirmed appointment. Created exactly once
// when a reservation reaches CONFIRMED; immutable afterwards except for the
// terminal Closed flag mirroring reservation cancellation.
type Consultation struct {
	ID             string    `bson:"id" json:"id"`
	ReservationID  string    `bson:"reservation_id" json:"reservationId"`
	ParticipantIDs []string  `bson:"participant_ids" json:"participantIds"`
	ScheduledAt    time.Time `bson:"scheduled_at" json:"scheduledAt"`
	Closed         bool      `bson:"closed" json:"closed"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
}
