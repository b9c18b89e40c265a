package stripepay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v82"

	"geargrab/internal/app/policies"
	"geargrab/internal/domain/shared/money"
)

var ErrClientNotConfigured = errors.New("stripe: client not configured")

// Gateway charges booking legs with PaymentIntents and refunds them against the intent.
type Gateway struct {
	Client *stripe.Client
	Logger *slog.Logger
}

func NewGateway(secretKey string, logger *slog.Logger) *Gateway {
	return &Gateway{Client: stripe.NewClient(secretKey), Logger: logger}
}

func (g *Gateway) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (g *Gateway) Charge(ctx context.Context, req policies.ChargeRequest) (policies.Charge, error) {
	if g == nil || g.Client == nil {
		return policies.Charge{}, fmt.Errorf("%w: %w", policies.ErrGatewayUnavailable, ErrClientNotConfigured)
	}
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(req.Amount.Amount),
		Currency: stripe.String(strings.ToLower(req.Amount.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.Client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		g.logger().ErrorContext(ctx, "stripe payment intent failed", "idempotency_key", req.IdempotencyKey, "error", err)
		return policies.Charge{}, fmt.Errorf("%w: %w", policies.ErrGatewayUnavailable, err)
	}
	return policies.Charge{
		ID:           pi.ID,
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (g *Gateway) Refund(ctx context.Context, req policies.RefundRequest) (policies.Refund, error) {
	if g == nil || g.Client == nil {
		return policies.Refund{}, fmt.Errorf("%w: %w", policies.ErrGatewayUnavailable, ErrClientNotConfigured)
	}
	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(req.PaymentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	if req.Amount.Amount > 0 {
		params.Amount = stripe.Int64(req.Amount.Amount)
	}
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	re, err := g.Client.V1Refunds.Create(ctx, params)
	if err != nil {
		g.logger().ErrorContext(ctx, "stripe refund failed", "payment_id", req.PaymentID, "error", err)
		return policies.Refund{}, fmt.Errorf("%w: %w", policies.ErrGatewayUnavailable, err)
	}
	return policies.Refund{
		ID:        re.ID,
		PaymentID: req.PaymentID,
		Amount:    money.Money{Amount: re.Amount, Currency: strings.ToUpper(string(re.Currency))},
		Status:    string(re.Status),
	}, nil
}
