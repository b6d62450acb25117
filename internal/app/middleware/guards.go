package middleware

import (
	"context"

	"erent/internal/app/commands"
	"erent/internal/app/queries"
)

// Validator rejects malformed messages before they reach a handler.
type Validator interface {
	Validate(ctx context.Context, message any) error
}

// Authorizer rejects messages the caller may not send.
type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// guard is a check that runs before the handler and short-circuits on error.
type guard func(ctx context.Context, message any) error

func (g guard) commands(next commands.Bus) commands.Bus {
	nextFn := wrapCommand(next)
	return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		if err := g(ctx, cmd); err != nil {
			return nil, err
		}
		return nextFn(ctx, cmd)
	})
}

func (g guard) queries(next queries.Bus) queries.Bus {
	nextFn := wrapQuery(next)
	return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
		if err := g(ctx, q); err != nil {
			return nil, err
		}
		return nextFn(ctx, q)
	})
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return guard(v.Validate).commands
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return guard(v.Validate).queries
}

// Authorization enforces the roles declared by access.Guarded commands.
func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guard(a.Authorize).commands
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guard(a.Authorize).queries
}
