package middleware

import (
	"context"
	"log/slog"

	"geargrab/internal/app/commands"
	"geargrab/internal/app/outbox"
)

// OutboxFlush flushes buffered event records after a successful command. Flush errors
// are logged only; the relay worker picks the records up on its next poll.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if ferr := box.Flush(ctx); ferr != nil && logger != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", ferr)
			}
			return res, nil
		})
	}
}
