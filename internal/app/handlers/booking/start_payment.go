package booking

import (
	"context"

	"geargrab/internal/app/commands"
	"geargrab/internal/app/dto"
	"geargrab/internal/app/middleware"
	bookingsvc "geargrab/internal/app/services/booking"
)

const startPaymentKey = "booking.start_payment"

type StartPaymentCommand struct {
	BookingID       string `validate:"required"`
	RenterID        string `validate:"required"`
	PaymentType     string `validate:"required,payment_type"`
	Email           string `validate:"omitempty,email"`
	IdempotencyKeyV string
}

func (c StartPaymentCommand) Key() string { return startPaymentKey }

func (c StartPaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c StartPaymentCommand) ResultPrototype() any { return &dto.CheckoutDTO{} }

func (c StartPaymentCommand) Caller() string { return c.RenterID }

type StartPaymentHandler struct {
	Service Lifecycle
}

func (h *StartPaymentHandler) Handle(ctx context.Context, cmd StartPaymentCommand) (*dto.CheckoutDTO, error) {
	checkout, err := h.Service.StartPayment(ctx, bookingsvc.PaymentRequest{
		BookingID:   cmd.BookingID,
		RenterID:    cmd.RenterID,
		PaymentType: cmd.PaymentType,
		Email:       cmd.Email,
	})
	if err != nil {
		return nil, err
	}
	return &dto.CheckoutDTO{
		BookingID:    checkout.BookingID,
		PaymentID:    checkout.PaymentID,
		ClientSecret: checkout.ClientSecret,
		PaymentType:  string(checkout.PaymentType),
		Amount:       dto.MapMoney(checkout.Amount),
	}, nil
}

var _ commands.Handler[StartPaymentCommand, *dto.CheckoutDTO] = (*StartPaymentHandler)(nil)
var _ middleware.IdempotentCommand = StartPaymentCommand{}
