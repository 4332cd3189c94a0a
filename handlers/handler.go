package handlers

// HandlerBundle aggregates the HTTP handlers wired in main and consumed by
// route registration.
type HandlerBundle struct {
	Slots        *SlotHandler
	Availability *AvailabilityHandler
	Reservations *ReservationHandler
	Payments     *PaymentHandler
	Messaging    *MessagingHandler
}
