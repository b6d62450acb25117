package commands

import (
	"context"
	"errors"
)

var (
	ErrHandlerNotFound = errors.New("commands: handler not found")
	ErrInvalidCommand  = errors.New("commands: invalid command for handler")
	ErrResultType      = errors.New("commands: result type mismatch")
	ErrNilBus          = errors.New("commands: nil bus")
)

// Command is a write request. Key selects the handler and scopes
// idempotency records.
type Command interface {
	Key() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

// Bus is implemented by InMemoryBus and by every CommandMiddleware layer.
type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

// Dispatch sends cmd through bus and asserts the result type. Handlers
// that return nothing yield the zero R.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var out R
	if bus == nil {
		return out, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil || res == nil {
		return out, err
	}
	out, ok := res.(R)
	if !ok {
		return out, ErrResultType
	}
	return out, nil
}
