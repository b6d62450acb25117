package middleware

import (
	"context"
	"fmt"

	"erent/internal/app/commands"
	"erent/internal/app/outbox"
)

// OutboxFlush hands the events recorded by a successful command to the
// outbox. It runs inside the unit of work, so a failed flush rolls the
// command back.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, fmt.Errorf("outbox flush after %s: %w", cmd.Key(), err)
			}
			return res, nil
		})
	}
}
