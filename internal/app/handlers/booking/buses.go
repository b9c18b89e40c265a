package booking

import (
	"log/slog"

	"geargrab/internal/app/commands"
	"geargrab/internal/app/middleware"
	"geargrab/internal/app/outbox"
	"geargrab/internal/app/queries"
)

// BusConfig carries the cross-cutting pieces wrapped around every booking handler.
type BusConfig struct {
	Logger      *slog.Logger
	Validator   middleware.Validator
	Idempotency middleware.IdempotencyStore
	Outbox      outbox.Outbox
}

// NewBuses registers the booking handlers and wraps both buses. Commands pass through
// logging, caller checks, validation and idempotency replay, then flush the outbox.
func NewBuses(svc Lifecycle, cfg BusConfig) (commands.Bus, queries.Bus) {
	cmdBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	Register(cmdBus, queryBus, svc)

	cmdMW := []middleware.CommandMiddleware{
		middleware.Logging(cfg.Logger),
		middleware.Authorization(CallerAuthorizer{}),
		middleware.Validation(cfg.Validator),
	}
	if cfg.Idempotency != nil {
		cmdMW = append(cmdMW, middleware.Idempotency(cfg.Idempotency, middleware.JSONResultCodec{}))
	}
	if cfg.Outbox != nil {
		cmdMW = append(cmdMW, middleware.OutboxFlush(cfg.Outbox, cfg.Logger))
	}
	commandsBus := middleware.ChainCommands(cmdBus, cmdMW...)
	queriesBus := middleware.ChainQueries(queryBus,
		middleware.QueryAuthorization(CallerAuthorizer{}),
		middleware.QueryValidation(cfg.Validator),
	)
	return commandsBus, queriesBus
}
