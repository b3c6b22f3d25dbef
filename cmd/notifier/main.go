// Package main is the entry point for the outage notifier service.
//
// It serves the HTTP API for outage lifecycle events, test notifications and
// notification history, and runs the advance-notice and retry jobs on their
// configured intervals. Graceful shutdown is handled via OS signal
// interception (SIGINT, SIGTERM): the HTTP server stops accepting requests,
// then in-flight background sends are drained within SHUTDOWN_TIMEOUT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"outagealert/internal/api"
	"outagealert/internal/api/handlers"
	"outagealert/internal/app"
	"outagealert/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, awsCfg, logger, err := app.Bootstrap(ctx, "notifier")
	if err != nil {
		return err
	}
	logger.Info("outage notifier starting",
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	a, err := app.New(ctx, cfg, awsCfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := api.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	if a.Prometheus != nil {
		srv.Metrics = api.NewPrometheusMetrics(a.Prometheus)
		srv.MetricsHandler = a.MetricsHandler()
	}
	srv.HealthProbes = append(srv.HealthProbes, api.ProbeFunc{ProbeName: "database", Fn: a.Pool.Ping})
	if a.Redis != nil {
		srv.HealthProbes = append(srv.HealthProbes, api.ProbeFunc{
			ProbeName: "redis",
			Fn:        func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() },
		})
	}

	outageHandler := handlers.NewOutageEventHandler(a.Outages, a.Orchestrator, srv.Validator, logger)
	userHandler := handlers.NewUserHandler(a.Users, a.Orchestrator, a.Notifications, srv.Validator, logger)
	notificationHandler := handlers.NewNotificationHandler(a.Store)
	srv.V1RouteRegistrars = []func(chi.Router){
		outageHandler.RegisterRoutes,
		userHandler.RegisterRoutes,
		notificationHandler.RegisterRoutes,
	}
	srv.MountRoutes()

	httpServer := srv.HTTPServer(":" + cfg.Server.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.Jobs.Loop(gctx, scheduler.TaskAdvanceNotice, cfg.Scheduler.AdvanceInterval)
	})
	g.Go(func() error {
		return a.Jobs.Loop(gctx, scheduler.TaskRetryFailed, cfg.Scheduler.RetryInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if err := a.Orchestrator.Drain(shutdownCtx); err != nil {
			logger.Warn("background sends still in flight at shutdown", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("outage notifier stopped")
	return nil
}
