package payment

import "errors"

var (
	// ErrPaymentProvider is a transient provider failure. The orchestrator
	// retries with backoff before surfacing it; the reservation stays in
	// AWAITING_PAYMENT and remains eligible for retry or expiry.
	ErrPaymentProvider = errors.New("payment provider unavailable")

	// ErrPaymentVerification means the event's signature or reference did
	// not check out. Fatal for that event: logged, never retried, never
	// applied to reservation state.
	ErrPaymentVerification = errors.New("payment event verification failed")
)
