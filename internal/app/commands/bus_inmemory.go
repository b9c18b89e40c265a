package commands

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type route func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus routes commands to handlers in process. Every dispatch runs in its own span.
type InMemoryBus struct {
	mu     sync.RWMutex
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func (b *InMemoryBus) register(key string, r route) {
	if key == "" {
		panic("commands: empty key registration")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.routes[key]; exists {
		panic(fmt.Errorf("%w: %s", ErrDuplicateKey, key))
	}
	b.routes[key] = r
}

// Keys lists the registered command keys in order.
func (b *InMemoryBus) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.routes))
	for k := range b.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	key := cmd.Key()
	b.mu.RLock()
	r, ok := b.routes[key]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, key)
	}

	ctx, span := otel.Tracer("geargrab/commands").Start(ctx, "command "+key)
	defer span.End()
	span.SetAttributes(attribute.String("command.key", key))
	res, err := r(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

// RegisterHandler binds a typed handler to key. Registering a key twice panics.
func RegisterHandler[C Command, R any](bus *InMemoryBus, key string, handler Handler[C, R]) {
	if bus == nil {
		panic(ErrNilBus)
	}
	bus.register(key, func(ctx context.Context, raw Command) (any, error) {
		cmd, ok := raw.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidCommand, key, raw)
		}
		return handler.Handle(ctx, cmd)
	})
}
