package commands

import (
	"context"
	"fmt"
	"sort"
)

type commandHandler func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus routes commands to handlers registered under their key.
type InMemoryBus struct {
	handlers map[string]commandHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]commandHandler)}
}

// RegisterRaw attaches a handler to key. Registering a key twice panics.
func (b *InMemoryBus) RegisterRaw(key string, handler commandHandler) {
	if key == "" {
		panic("commands: empty key registration")
	}
	if _, exists := b.handlers[key]; exists {
		panic(fmt.Sprintf("commands: duplicate registration for %q", key))
	}
	b.handlers[key] = handler
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	h, ok := b.handlers[cmd.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.Key())
	}
	return h(ctx, cmd)
}

// Keys lists registered command keys in sorted order.
func (b *InMemoryBus) Keys() []string {
	keys := make([]string, 0, len(b.handlers))
	for k := range b.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegisterHandler registers a strongly typed handler under the command's own key.
func RegisterHandler[C Command, R any](bus *InMemoryBus, handler Handler[C, R]) {
	if bus == nil {
		panic("commands: nil bus")
	}
	var zero C
	key := zero.Key()
	bus.RegisterRaw(key, func(ctx context.Context, raw Command) (any, error) {
		cmd, ok := any(raw).(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCommand, key)
		}
		return handler.Handle(ctx, cmd)
	})
}
