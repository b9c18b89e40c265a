package stripepay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"geargrab/internal/app/policies"
	"geargrab/internal/domain/shared/money"
)

var (
	ErrInvalidSignature = errors.New("stripe webhook: signature verification failed")
	ErrMalformedEvent   = errors.New("stripe webhook: malformed event payload")
)

type Outcome string

const (
	OutcomeIgnored   Outcome = ""
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// WebhookEvent is a verified gateway notification reduced to what the booking service needs.
type WebhookEvent struct {
	ID      string
	Type    string
	Outcome Outcome
	Result  policies.PaymentResult
}

// ParseWebhook verifies the Stripe-Signature header and decodes payment intent outcomes.
// Event types other than succeeded/payment_failed come back with OutcomeIgnored.
func ParseWebhook(payload []byte, signature, secret string) (WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	out := WebhookEvent{ID: event.ID, Type: string(event.Type)}

	switch event.Type {
	case "payment_intent.succeeded":
		out.Outcome = OutcomeSucceeded
	case "payment_intent.payment_failed":
		out.Outcome = OutcomeFailed
	default:
		return out, nil
	}
	if event.Data == nil {
		return WebhookEvent{}, ErrMalformedEvent
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	bookingID := pi.Metadata[policies.MetadataBookingID]
	if pi.ID == "" || bookingID == "" {
		return WebhookEvent{}, fmt.Errorf("%w: payment intent %q carries no booking", ErrMalformedEvent, pi.ID)
	}
	out.Result = policies.PaymentResult{
		EventID:     event.ID,
		PaymentID:   pi.ID,
		BookingID:   bookingID,
		PaymentType: pi.Metadata[policies.MetadataPaymentType],
		Amount:      money.Money{Amount: pi.Amount, Currency: strings.ToUpper(string(pi.Currency))},
	}
	if out.Outcome == OutcomeFailed {
		out.Result.FailureReason = "payment failed"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			out.Result.FailureReason = pi.LastPaymentError.Msg
		}
	}
	return out, nil
}
