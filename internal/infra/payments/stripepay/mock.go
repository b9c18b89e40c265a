package stripepay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"geargrab/internal/app/policies"
)

// MockGateway approves every charge and refund. Repeated idempotency keys return the
// first response, matching what Stripe does.
type MockGateway struct {
	Logger *slog.Logger

	mu      sync.Mutex
	charges map[string]policies.Charge
	refunds map[string]policies.Refund
}

func NewMockGateway(logger *slog.Logger) *MockGateway {
	return &MockGateway{
		Logger:  logger,
		charges: make(map[string]policies.Charge),
		refunds: make(map[string]policies.Refund),
	}
}

func (m *MockGateway) Charge(ctx context.Context, req policies.ChargeRequest) (policies.Charge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.charges[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return c, nil
	}
	id := "pi_mock_" + uuid.NewString()
	c := policies.Charge{ID: id, Status: "requires_payment_method", ClientSecret: id + "_secret"}
	if req.IdempotencyKey != "" {
		m.charges[req.IdempotencyKey] = c
	}
	if m.Logger != nil {
		m.Logger.InfoContext(ctx, "mock charge created", "payment_id", id, "amount", req.Amount.String(), "metadata", req.Metadata)
	}
	return c, nil
}

func (m *MockGateway) Refund(ctx context.Context, req policies.RefundRequest) (policies.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.refunds[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return r, nil
	}
	r := policies.Refund{ID: "re_mock_" + uuid.NewString(), PaymentID: req.PaymentID, Amount: req.Amount, Status: "succeeded"}
	if req.IdempotencyKey != "" {
		m.refunds[req.IdempotencyKey] = r
	}
	if m.Logger != nil {
		m.Logger.InfoContext(ctx, "mock refund issued", "payment_id", req.PaymentID, "refund_id", r.ID)
	}
	return r, nil
}
