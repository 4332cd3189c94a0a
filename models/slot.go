package models

// Slot is a fixed-duration bookable unit computed on demand from an
// AvailabilityBlock minus already-occupied start times. Never persisted.
type Slot struct {
	ProfessionalID string `json:"professionalId"`
	Date           string `json:"date"`
	Start          int    `json:"start"`    // minutes from midnight
	Duration       int    `json:"duration"` // minutes
}
