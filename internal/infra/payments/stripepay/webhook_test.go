package stripepay

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"geargrab/internal/app/policies"
	"geargrab/internal/domain/shared/money"
)

const testSecret = "whsec_test"

func signed(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return sp.Header, sp.Payload
}

func intentEvent(eventID, eventType, extra string) string {
	return fmt.Sprintf(`{
  "id": %q,
  "object": "event",
  "type": %q,
  "api_version": "2020-08-27",
  "data": {"object": {
    "id": "pi_123",
    "object": "payment_intent",
    "amount": 2250,
    "currency": "usd",
    "metadata": {"bookingId": "bk_1", "paymentType": "upfront"}%s
  }}
}`, eventID, eventType, extra)
}

func TestParseWebhookSucceeded(t *testing.T) {
	header, payload := signed(t, intentEvent("evt_1", "payment_intent.succeeded", ""))

	ev, err := ParseWebhook(payload, header, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, OutcomeSucceeded, ev.Outcome)
	assert.Equal(t, policies.PaymentResult{
		EventID:     "evt_1",
		PaymentID:   "pi_123",
		BookingID:   "bk_1",
		PaymentType: "upfront",
		Amount:      money.Money{Amount: 2250, Currency: "USD"},
	}, ev.Result)
}

func TestParseWebhookFailedCarriesReason(t *testing.T) {
	extra := `, "last_payment_error": {"message": "Your card was declined."}`
	header, payload := signed(t, intentEvent("evt_2", "payment_intent.payment_failed", extra))

	ev, err := ParseWebhook(payload, header, testSecret)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, ev.Outcome)
	assert.Equal(t, "Your card was declined.", ev.Result.FailureReason)
}

func TestParseWebhookIgnoresOtherEvents(t *testing.T) {
	header, payload := signed(t, intentEvent("evt_3", "payment_intent.created", ""))

	ev, err := ParseWebhook(payload, header, testSecret)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, ev.Outcome)
	assert.Equal(t, "payment_intent.created", ev.Type)
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	header, payload := signed(t, intentEvent("evt_4", "payment_intent.succeeded", ""))

	_, err := ParseWebhook(payload, header, "whsec_other")
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseWebhookRequiresBookingMetadata(t *testing.T) {
	raw := `{"id":"evt_5","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_9","object":"payment_intent","metadata":{}}}}`
	header, payload := signed(t, raw)

	_, err := ParseWebhook(payload, header, testSecret)
	require.ErrorIs(t, err, ErrMalformedEvent)
}

func TestMockGatewayReplaysIdempotentCharges(t *testing.T) {
	gw := NewMockGateway(nil)
	req := policies.ChargeRequest{Amount: money.Must(100, "USD"), IdempotencyKey: "booking:1:upfront:v1"}

	first, err := gw.Charge(context.Background(), req)
	require.NoError(t, err)
	second, err := gw.Charge(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := gw.Charge(context.Background(), policies.ChargeRequest{Amount: money.Must(100, "USD"), IdempotencyKey: "booking:1:upfront:v2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	refund, err := gw.Refund(context.Background(), policies.RefundRequest{PaymentID: first.ID, Amount: money.Must(100, "USD")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, refund.PaymentID)
	assert.Equal(t, "succeeded", refund.Status)
}
