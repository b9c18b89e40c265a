package queries

import (
	"context"
	"fmt"
	"sync"
)

type route func(ctx context.Context, q Query) (any, error)

// InMemoryBus keeps query handlers keyed by Query.Key.
type InMemoryBus struct {
	mu     sync.RWMutex
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	b.mu.RLock()
	r, ok := b.routes[query.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, query.Key())
	}
	return r(ctx, query)
}

func RegisterHandler[Q Query, R any](bus *InMemoryBus, key string, handler Handler[Q, R]) {
	if bus == nil {
		panic(ErrNilBus)
	}
	if key == "" {
		panic("queries: empty key registration")
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, exists := bus.routes[key]; exists {
		panic(fmt.Errorf("%w: %s", ErrDuplicateKey, key))
	}
	bus.routes[key] = func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidQuery, key, raw)
		}
		return handler.Handle(ctx, q)
	}
}
