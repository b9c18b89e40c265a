package queries

import (
	"context"
	"errors"
	"fmt"
)

// Query is a read request; it never changes a booking.
type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("queries: no handler registered")
	ErrDuplicateKey    = errors.New("queries: handler already registered")
	ErrInvalidQuery    = errors.New("queries: query does not match handler")
	ErrResultType      = errors.New("queries: unexpected result type")
	ErrNilBus          = errors.New("queries: nil bus")
)

// Ask runs query and asserts the result type.
func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, query.Key(), res)
	}
	return value, nil
}
