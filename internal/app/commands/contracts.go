package commands

import (
	"context"
	"errors"
	"fmt"
)

// Command is a state change request. Key names the handler it is routed to.
type Command interface {
	Key() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// Bus is what HTTP handlers and background jobs dispatch through. Middleware wraps it.
type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("commands: no handler registered")
	ErrDuplicateKey    = errors.New("commands: handler already registered")
	ErrInvalidCommand  = errors.New("commands: command does not match handler")
	ErrResultType      = errors.New("commands: unexpected result type")
	ErrNilBus          = errors.New("commands: nil bus")
)

// Dispatch sends cmd and asserts the handler's result type. A nil result yields R's zero value.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, cmd.Key(), res)
	}
	return value, nil
}
