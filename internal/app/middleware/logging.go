package middleware

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"erent/internal/app/commands"
	"erent/internal/app/queries"
)

// Logging records each command with its outcome and latency.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			if err != nil {
				logger.InfoContext(ctx, "command failed", "command", cmd.Key(), "duration", time.Since(start), "error", err)
				return nil, err
			}
			logger.DebugContext(ctx, "command handled", "command", cmd.Key(), "duration", time.Since(start))
			return res, nil
		})
	}
}

// Tracing opens a span around every command.
func Tracing(tracer trace.Tracer) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			ctx, span := tracer.Start(ctx, "command "+cmd.Key(), trace.WithAttributes(attribute.String("command.key", cmd.Key())))
			defer span.End()
			res, err := nextFn(ctx, cmd)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return res, err
		})
	}
}

// QueryTracing opens a span around every query.
func QueryTracing(tracer trace.Tracer) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			ctx, span := tracer.Start(ctx, "query "+q.Key(), trace.WithAttributes(attribute.String("query.key", q.Key())))
			defer span.End()
			res, err := nextFn(ctx, q)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return res, err
		})
	}
}
