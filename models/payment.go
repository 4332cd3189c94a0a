package models

// SessionHandle is the opaque handle returned by the payment provider for a
// payment session. The client completes the payment against it; the server
// never advances reservation state from this call alone.
type SessionHandle struct {
	SessionID     string `json:"sessionId"`
	ClientSecret  string `json:"clientSecret,omitempty"`
	ReservationID string `json:"reservationId"`
	Amount        int64  `json:"amount"`   // minor units
	Currency      string `json:"currency"` // ISO code, lowercase
}
