package booking

import (
	"context"

	"geargrab/internal/app/commands"
)

const releaseDepositKey = "booking.release_deposit"

// ReleaseDepositCommand is dispatched by the job sweeper once the hold period ends.
type ReleaseDepositCommand struct {
	BookingID string `validate:"required"`
}

func (c ReleaseDepositCommand) Key() string { return releaseDepositKey }

type ReleaseDepositHandler struct {
	Service Lifecycle
}

func (h *ReleaseDepositHandler) Handle(ctx context.Context, cmd ReleaseDepositCommand) (struct{}, error) {
	return struct{}{}, h.Service.ReleaseDeposit(ctx, cmd.BookingID)
}

var _ commands.Handler[ReleaseDepositCommand, struct{}] = (*ReleaseDepositHandler)(nil)
