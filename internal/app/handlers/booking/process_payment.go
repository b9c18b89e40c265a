package booking

import (
	"context"
	"fmt"

	"geargrab/internal/app/commands"
	"geargrab/internal/app/dto"
	"geargrab/internal/app/policies"
)

const processPaymentKey = "booking.process_payment"

type PaymentOutcome string

const (
	PaymentSucceeded PaymentOutcome = "succeeded"
	PaymentFailed    PaymentOutcome = "failed"
)

// ProcessPaymentCommand carries a gateway callback. It has no caller; the webhook
// signature is its authentication.
type ProcessPaymentCommand struct {
	Outcome PaymentOutcome `validate:"required,oneof=succeeded failed"`
	Result  policies.PaymentResult
}

func (c ProcessPaymentCommand) Key() string { return processPaymentKey }

type ProcessPaymentHandler struct {
	Service Lifecycle
}

func (h *ProcessPaymentHandler) Handle(ctx context.Context, cmd ProcessPaymentCommand) (*dto.PaymentOutcomeDTO, error) {
	var (
		applied bool
		err     error
	)
	switch cmd.Outcome {
	case PaymentSucceeded:
		applied, err = h.Service.ProcessSuccessfulPayment(ctx, cmd.Result)
	case PaymentFailed:
		applied, err = h.Service.ProcessFailedPayment(ctx, cmd.Result)
	default:
		return nil, fmt.Errorf("booking: unknown payment outcome %q", cmd.Outcome)
	}
	if err != nil {
		return nil, err
	}
	return &dto.PaymentOutcomeDTO{BookingID: cmd.Result.BookingID, PaymentID: cmd.Result.PaymentID, Applied: applied}, nil
}

var _ commands.Handler[ProcessPaymentCommand, *dto.PaymentOutcomeDTO] = (*ProcessPaymentHandler)(nil)
