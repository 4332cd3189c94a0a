package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"mindbridge/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Provider is the external payment service, untrusted until verified.
type Provider interface {
	// CreateSession requests a payment session for the reservation and
	// returns its opaque handle.
	CreateSession(ctx context.Context, res *models.Reservation) (*models.SessionHandle, error)
	// VerifyEvent checks the authenticity of a raw provider notification
	// and decodes it into the closed ProviderEvent variant.
	VerifyEvent(payload []byte, signature string) (*ProviderEvent, error)
}

const metadataReservationID = "reservation_id"

// StripeProvider implements Provider on Stripe PaymentIntents. The package
// expects stripe.Key to be set at startup.
type StripeProvider struct {
	// WebhookSecret is the endpoint signing secret used to verify events.
	WebhookSecret string
	// Currency is the ISO currency code for new sessions, lowercase.
	Currency string
}

func (p *StripeProvider) CreateSession(ctx context.Context, res *models.Reservation) (*models.SessionHandle, error) {
	amount := int64(res.Price * 100) // minor units

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(p.Currency),
	}
	params.Context = ctx
	params.AddMetadata(metadataReservationID, res.ID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &models.SessionHandle{
		SessionID:     pi.ID,
		ClientSecret:  pi.ClientSecret,
		ReservationID: res.ID,
		Amount:        amount,
		Currency:      p.Currency,
	}, nil
}

func (p *StripeProvider) VerifyEvent(payload []byte, signature string) (*ProviderEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("signature verification failed: %w", err)
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		return nil, fmt.Errorf("unexpected event type %q", event.Type)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("failed to decode payment intent payload: %w", err)
	}

	reservationID := pi.Metadata[metadataReservationID]
	if reservationID == "" {
		return nil, fmt.Errorf("event %s carries no reservation reference", event.ID)
	}

	out := &ProviderEvent{
		TxnID:         pi.ID,
		ReservationID: reservationID,
	}
	if event.Type == "payment_intent.succeeded" {
		out.Kind = KindPaymentSucceeded
	} else {
		out.Kind = KindPaymentFailed
		if pi.LastPaymentError != nil {
			out.Reason = pi.LastPaymentError.Msg
		}
	}
	return out, nil
}
