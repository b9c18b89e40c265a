package booking

import (
	"context"

	"geargrab/internal/app/commands"
	"geargrab/internal/app/dto"
	bookingsvc "geargrab/internal/app/services/booking"
)

const updateBookingStatusKey = "booking.update_status"

type UpdateBookingStatusCommand struct {
	BookingID string `validate:"required"`
	Status    string `validate:"required,booking_status"`
	ActorID   string `validate:"required"`
	ActorType string `validate:"required,actor_type"`
	Notes     string `validate:"max=1000"`
}

func (c UpdateBookingStatusCommand) Key() string { return updateBookingStatusKey }

func (c UpdateBookingStatusCommand) Caller() string { return c.ActorID }

type UpdateBookingStatusHandler struct {
	Service Lifecycle
}

func (h *UpdateBookingStatusHandler) Handle(ctx context.Context, cmd UpdateBookingStatusCommand) (*dto.BookingDTO, error) {
	b, err := h.Service.UpdateBookingStatus(ctx, bookingsvc.StatusUpdate{
		BookingID: cmd.BookingID,
		Status:    cmd.Status,
		ActorID:   cmd.ActorID,
		ActorType: cmd.ActorType,
		Notes:     cmd.Notes,
	})
	if err != nil {
		return nil, err
	}
	return dto.MapBooking(b), nil
}

var _ commands.Handler[UpdateBookingStatusCommand, *dto.BookingDTO] = (*UpdateBookingStatusHandler)(nil)
