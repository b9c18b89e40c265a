package booking

import (
	"context"

	"geargrab/internal/app/commands"
	"geargrab/internal/app/dto"
)

const approveBookingKey = "booking.approve"

type ApproveBookingCommand struct {
	BookingID string `validate:"required"`
	OwnerID   string `validate:"required"`
}

func (c ApproveBookingCommand) Key() string { return approveBookingKey }

func (c ApproveBookingCommand) Caller() string { return c.OwnerID }

type ApproveBookingHandler struct {
	Service Lifecycle
}

func (h *ApproveBookingHandler) Handle(ctx context.Context, cmd ApproveBookingCommand) (*dto.BookingDTO, error) {
	b, err := h.Service.ApproveBooking(ctx, cmd.BookingID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	return dto.MapBooking(b), nil
}

var _ commands.Handler[ApproveBookingCommand, *dto.BookingDTO] = (*ApproveBookingHandler)(nil)
