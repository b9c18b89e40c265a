package booking

import (
	"context"

	"geargrab/internal/app/commands"
	"geargrab/internal/app/dto"
)

const completeBookingKey = "booking.complete"

type CompleteBookingCommand struct {
	BookingID string `validate:"required"`
	UserID    string `validate:"required"`
}

func (c CompleteBookingCommand) Key() string { return completeBookingKey }

func (c CompleteBookingCommand) Caller() string { return c.UserID }

type CompleteBookingHandler struct {
	Service Lifecycle
}

func (h *CompleteBookingHandler) Handle(ctx context.Context, cmd CompleteBookingCommand) (*dto.BookingDTO, error) {
	b, err := h.Service.CompleteBooking(ctx, cmd.BookingID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	return dto.MapBooking(b), nil
}

var _ commands.Handler[CompleteBookingCommand, *dto.BookingDTO] = (*CompleteBookingHandler)(nil)
