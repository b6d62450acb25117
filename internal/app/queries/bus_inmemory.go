package queries

import (
	"context"
	"fmt"
	"sort"
)

type queryHandler func(ctx context.Context, q Query) (any, error)

// InMemoryBus routes queries to handlers registered under their key.
type InMemoryBus struct {
	handlers map[string]queryHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]queryHandler)}
}

func (b *InMemoryBus) RegisterRaw(key string, handler queryHandler) {
	if key == "" {
		panic("queries: empty key registration")
	}
	if _, exists := b.handlers[key]; exists {
		panic(fmt.Sprintf("queries: duplicate registration for %q", key))
	}
	b.handlers[key] = handler
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	h, ok := b.handlers[query.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, query.Key())
	}
	return h(ctx, query)
}

func (b *InMemoryBus) Keys() []string {
	keys := make([]string, 0, len(b.handlers))
	for k := range b.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegisterHandler registers a typed handler under the query's own key.
func RegisterHandler[Q Query, R any](bus *InMemoryBus, handler Handler[Q, R]) {
	if bus == nil {
		panic("queries: nil bus")
	}
	var zero Q
	key := zero.Key()
	bus.RegisterRaw(key, func(ctx context.Context, raw Query) (any, error) {
		q, ok := any(raw).(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, key)
		}
		return handler.Handle(ctx, q)
	})
}
