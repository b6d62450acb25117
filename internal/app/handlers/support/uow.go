package support

import (
	"context"

	"erent/internal/app/uow"
)

type contextInjector interface {
	InjectContext(context.Context) context.Context
}

// BeginReadOnlyUnit reuses the unit carried by ctx or opens a read-only one.
// The returned cleanup is nil when the unit came from ctx.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := inject(ctx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// Managed is a writable unit of work. When the unit was opened here rather
// than taken from the context, Commit commits it and Close rolls it back if
// it was not committed.
type Managed struct {
	Unit      uow.UnitOfWork
	Ctx       context.Context
	owned     bool
	committed bool
}

func BeginUnit(ctx context.Context, factory uow.UoWFactory) (*Managed, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return &Managed{Unit: unit, Ctx: ctx}, nil
	}
	if factory == nil {
		return nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &Managed{Unit: unit, Ctx: inject(ctx, unit), owned: true}, nil
}

func (m *Managed) Commit() error {
	if !m.owned || m.committed {
		return nil
	}
	if err := m.Unit.Commit(m.Ctx); err != nil {
		return err
	}
	m.committed = true
	return nil
}

func (m *Managed) Close() {
	if m.owned && !m.committed {
		_ = m.Unit.Rollback(m.Ctx)
	}
}

func inject(ctx context.Context, unit uow.UnitOfWork) context.Context {
	if injector, ok := unit.(contextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return uow.ContextWithUnitOfWork(ctx, unit)
}
