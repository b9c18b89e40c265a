package booking

import (
	"context"
	"time"

	"geargrab/internal/app/commands"
	"geargrab/internal/app/dto"
	"geargrab/internal/app/middleware"
	bookingsvc "geargrab/internal/app/services/booking"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	ListingID       string    `validate:"required"`
	RenterID        string    `validate:"required"`
	StartDate       time.Time `validate:"required"`
	EndDate         time.Time `validate:"required"`
	DeliveryMethod  string    `validate:"omitempty,oneof=pickup delivery"`
	InsuranceTier   string    `validate:"omitempty,oneof=none basic premium"`
	SpecialRequests string    `validate:"max=2000"`
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.BookingDTO{} }

func (c CreateBookingCommand) Caller() string { return c.RenterID }

type CreateBookingHandler struct {
	Service Lifecycle
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.BookingDTO, error) {
	b, err := h.Service.CreateBooking(ctx, bookingsvc.CreateRequest{
		ListingID:       cmd.ListingID,
		RenterID:        cmd.RenterID,
		StartDate:       cmd.StartDate,
		EndDate:         cmd.EndDate,
		DeliveryMethod:  cmd.DeliveryMethod,
		InsuranceTier:   cmd.InsuranceTier,
		SpecialRequests: cmd.SpecialRequests,
	})
	if err != nil {
		return nil, err
	}
	return dto.MapBooking(b), nil
}

var _ commands.Handler[CreateBookingCommand, *dto.BookingDTO] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateBookingCommand{}
