// Package schedule runs periodic commands through the command bus.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"erent/internal/app/commands"
)

// Scheduler dispatches registered commands on cron specs. Specs carry a
// seconds field.
type Scheduler struct {
	cron   *cron.Cron
	bus    commands.Bus
	logger *slog.Logger
}

func New(bus commands.Bus, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithSeconds()),
		bus:    bus,
		logger: logger,
	}
}

// Register dispatches cmd every time spec fires.
func (s *Scheduler) Register(name, spec string, cmd commands.Command) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(context.Background(), name, cmd) }); err != nil {
		return fmt.Errorf("schedule: register %s: %w", name, err)
	}
	s.logger.Info("job registered", "job", name, "spec", spec)
	return nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, name string, cmd commands.Command) {
	start := time.Now()
	res, err := s.bus.Dispatch(ctx, cmd)
	if err != nil {
		s.logger.Error("job failed", "job", name, "error", err)
		return
	}
	s.logger.Info("job finished", "job", name, "result", res, "duration", time.Since(start))
}
