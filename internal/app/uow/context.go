package uow

import (
	"context"
	"errors"
)

var (
	ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")
	// ErrConcurrentUpdate is returned by Save when the stored version moved on
	// since the aggregate was loaded.
	ErrConcurrentUpdate = errors.New("uow: concurrent update")
)

type unitKey struct{}

// ContextWithUnitOfWork lets handlers further down the bus join the unit
// opened by the transaction middleware.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}
