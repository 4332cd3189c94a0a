package models

// AvailabilityBlock is a contiguous time range a professional has declared
// open for consultations. Declared by the professional; read-only to the
// reservation core.
type AvailabilityBlock struct {
	ID             string `bson:"id" json:"id"`
	ProfessionalID string `bson:"professional_id" json:"professionalId"`
	Date           string `bson:"date" json:"date"`   // e.g., "2025-02-25"
	Start          int    `bson:"start" json:"start"` // minutes from midnight (e.g., 540 for 9:00 AM)
	End            int    `bson:"end" json:"end"`     // minutes from midnight
}

// SetupAvailabilityRequest defines the payload for declaring availability.
type SetupAvailabilityRequest struct {
	Date  string `json:"date" binding:"required"`
	Start int    `json:"start" binding:"min=0,max=1440"`
	End   int    `json:"end" binding:"required,min=0,max=1440"`
}
