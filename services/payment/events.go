package payment

// EventKind is the closed set of provider event kinds this core accepts.
// Anything outside it is rejected at the boundary before any state mutation.
type EventKind int

const (
	KindPaymentSucceeded EventKind = iota + 1
	KindPaymentFailed
)

// ProviderEvent is the validated, typed form of an asynchronous provider
// notification. TxnID is the provider's transaction identifier and the
// idempotency key for reconciliation.
type ProviderEvent struct {
	Kind          EventKind
	TxnID         string
	ReservationID string
	Reason        string // failure reason, when Kind is KindPaymentFailed
}
