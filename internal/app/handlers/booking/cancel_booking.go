package booking

import (
	"context"

	"geargrab/internal/app/commands"
	"geargrab/internal/app/dto"
	bookingsvc "geargrab/internal/app/services/booking"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string `validate:"required"`
	UserID    string `validate:"required"`
	UserType  string `validate:"required,oneof=renter owner admin"`
	Reason    string `validate:"max=1000"`
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) Caller() string { return c.UserID }

type CancelBookingHandler struct {
	Service Lifecycle
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.CancelResultDTO, error) {
	res, err := h.Service.CancelBooking(ctx, bookingsvc.CancelRequest{
		BookingID: cmd.BookingID,
		UserID:    cmd.UserID,
		UserType:  cmd.UserType,
		Reason:    cmd.Reason,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.CancelResultDTO{Booking: dto.MapBooking(res.Booking), Refunds: make([]dto.RefundDTO, 0, len(res.Refunds))}
	for _, r := range res.Refunds {
		out.Refunds = append(out.Refunds, dto.RefundDTO{
			PaymentType: string(r.PaymentType),
			PaymentID:   r.PaymentID,
			RefundID:    r.RefundID,
			Failed:      r.Err != nil,
		})
	}
	return out, nil
}

var _ commands.Handler[CancelBookingCommand, *dto.CancelResultDTO] = (*CancelBookingHandler)(nil)
