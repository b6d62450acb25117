package middleware

import (
	"context"
	"errors"

	"erent/internal/app/commands"
	"erent/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// SelfManaged is implemented by commands whose handler opens its own short
// units around calls to remote services, so no unit stays open across them.
type SelfManaged interface {
	commands.Command
	ManagesOwnUnits()
}

// RetryPolicy re-runs a command in a fresh unit of work when it fails with
// one of Retryable, up to Attempts times in total.
type RetryPolicy struct {
	Attempts  int
	Retryable []error
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

func (p RetryPolicy) retry(err error) bool {
	for _, target := range p.Retryable {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Transaction runs each command inside a unit of work carried by the context.
// SelfManaged commands pass straight through.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider, policy ...RetryPolicy) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	var retry RetryPolicy
	if len(policy) > 0 {
		retry = policy[0]
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if _, ok := cmd.(SelfManaged); ok {
				return nextFn(ctx, cmd)
			}
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			var (
				res any
				err error
			)
			for attempt := 0; attempt < retry.attempts(); attempt++ {
				res, err = runInUnit(ctx, factory, opts, cmd, nextFn)
				if err == nil || !retry.retry(err) || ctx.Err() != nil {
					break
				}
			}
			return res, err
		})
	}
}

func runInUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions, cmd commands.Command, next commandFunc) (any, error) {
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = uow.ContextWithUnitOfWork(execCtx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()

	res, err := next(execCtx, cmd)
	if err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}
