package payment

import (
	"context"
	"fmt"
	"time"

	"mindbridge/models"
	"mindbridge/services/reservation"

	"go.uber.org/zap"
)

// PaymentOrchestrator bridges reservation state to the external payment
// provider. It never touches slot-occupancy state directly: every state
// change goes through the reservation manager's transition API.
type PaymentOrchestrator interface {
	// InitiatePayment requests a payment session for the caller's
	// reservation. It performs the validate transition for a PENDING
	// reservation, then requires AWAITING_PAYMENT. The session handle is
	// returned to the client; reservation state does not advance here.
	InitiatePayment(ctx context.Context, reservationID string, who models.Identity) (*models.SessionHandle, error)
	// Reconcile applies an asynchronous provider event. Events arrive
	// seconds to minutes after initiation and possibly out of order; the
	// same provider transaction applied twice produces no second state
	// change.
	Reconcile(ctx context.Context, payload []byte, signature string) error
}

// DefaultPaymentOrchestrator is the production implementation.
type DefaultPaymentOrchestrator struct {
	Reservations reservation.ReservationService
	Provider     Provider
	// MaxAttempts bounds provider retries per initiation.
	MaxAttempts int
	// RetryBackoff is the initial delay between attempts; doubled each retry.
	RetryBackoff time.Duration
	Logger       *zap.Logger
}

func (o *DefaultPaymentOrchestrator) InitiatePayment(ctx context.Context, reservationID string, who models.Identity) (*models.SessionHandle, error) {
	res, err := o.Reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != who.UserID {
		return nil, reservation.ErrNotOwner
	}

	switch res.Status {
	case models.ReservationPending:
		if err := o.Reservations.MarkAwaitingPayment(ctx, reservationID); err != nil {
			return nil, err
		}
	case models.ReservationAwaitingPayment:
		// Retrying a previous initiation; a fresh session is fine.
	default:
		return nil, reservation.ErrInvalidTransition
	}

	handle, err := o.createSessionWithRetry(ctx, res)
	if err != nil {
		// The reservation stays AWAITING_PAYMENT, eligible for another
		// attempt or for the expiry sweep.
		return nil, err
	}
	return handle, nil
}

func (o *DefaultPaymentOrchestrator) createSessionWithRetry(ctx context.Context, res *models.Reservation) (*models.SessionHandle, error) {
	attempts := o.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := o.RetryBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		handle, err := o.Provider.CreateSession(ctx, res)
		if err == nil {
			return handle, nil
		}
		lastErr = err
		o.Logger.Warn("payment session creation failed",
			zap.String("reservationId", res.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, lastErr)
}

func (o *DefaultPaymentOrchestrator) Reconcile(ctx context.Context, payload []byte, signature string) error {
	ev, err := o.Provider.VerifyEvent(payload, signature)
	if err != nil {
		o.Logger.Error("rejected provider event", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPaymentVerification, err)
	}

	switch ev.Kind {
	case KindPaymentSucceeded:
		if err := o.Reservations.ConfirmPayment(ctx, ev.ReservationID, ev.TxnID); err != nil {
			return err
		}
		o.Logger.Info("payment reconciled",
			zap.String("reservationId", ev.ReservationID),
			zap.String("txnId", ev.TxnID))
		return nil

	case KindPaymentFailed:
		// No state change: the reservation stays AWAITING_PAYMENT for a
		// retry, or the expiry sweep releases the slot.
		o.Logger.Warn("payment failed at provider",
			zap.String("reservationId", ev.ReservationID),
			zap.String("txnId", ev.TxnID),
			zap.String("reason", ev.Reason))
		return nil

	default:
		o.Logger.Error("provider event with unknown kind",
			zap.String("txnId", ev.TxnID))
		return ErrPaymentVerification
	}
}
