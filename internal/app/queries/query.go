package queries

import (
	"context"
	"errors"
)

var (
	ErrHandlerNotFound = errors.New("queries: handler not found")
	ErrInvalidQuery    = errors.New("queries: invalid query for handler")
	ErrResultType      = errors.New("queries: result type mismatch")
	ErrNilBus          = errors.New("queries: nil bus")
)

// Query is a read request. Key selects the handler on the bus.
type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

type HandlerFunc[Q Query, R any] func(ctx context.Context, query Q) (R, error)

func (f HandlerFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

// Bus is implemented by InMemoryBus and by every QueryMiddleware layer.
type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

// Ask runs query through bus and asserts the result type. A nil result
// yields the zero R.
func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var out R
	if bus == nil {
		return out, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	switch {
	case err != nil:
		return out, err
	case res == nil:
		return out, nil
	}
	out, ok := res.(R)
	if !ok {
		return out, ErrResultType
	}
	return out, nil
}
