package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"erent/internal/infra/config"
	ginserver "erent/internal/infra/http/gin"
	"erent/internal/infra/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV"), "info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Error("erent stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := obs.SetupTracing(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("wiring: %w", err)
	}
	defer app.close(logger)

	if err := app.seedReference(ctx, cfg.ReferenceSeedPath, logger); err != nil {
		logger.Warn("reference seed failed", "error", err, "path", cfg.ReferenceSeedPath)
	}

	var workers sync.WaitGroup
	defer workers.Wait()
	app.startBackground(ctx, &workers, logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Tracer: app.tracer}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracing shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
