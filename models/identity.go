package models

// Identity is the authenticated caller, extracted once at the HTTP boundary
// and passed explicitly into every operation. The core never reads ambient
// "current user" state.
type Identity struct {
	UserID string `json:"userId"`
	Role   string `json:"role"` // "user" or "professional"
}

func (i Identity) IsProfessional() bool {
	return i.Role == "professional"
}
