package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alokkksharmaa/EduSphere/internal/cache"
	"github.com/alokkksharmaa/EduSphere/internal/database"
	"github.com/alokkksharmaa/EduSphere/internal/handlers"
	"github.com/alokkksharmaa/EduSphere/internal/jobs"
	"github.com/alokkksharmaa/EduSphere/internal/server"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the token purge schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")

	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if migrate {
		if err := database.Migrate(ctx, a.db); err != nil {
			return err
		}
		a.log.Info().Msg("migrations applied")
	}

	checks := map[string]handlers.HealthCheck{
		"postgres": a.db.Ping,
		"redis": func(ctx context.Context) error {
			return cache.Ping(ctx, a.redis)
		},
	}
	handlerSet := handlers.NewHandlerSet(a.log, a.cfg, a.gateway(), a.authService, a.preferences, checks)

	var gatherer prometheus.Gatherer
	if a.registry != nil {
		gatherer = a.registry
	}
	httpServer := server.NewHTTPServer(a.cfg, a.log, handlerSet, a.metrics, gatherer)

	scheduler := jobs.NewScheduler(a.remember, a.cfg.Jobs.PurgeSchedule, a.metrics, a.log)
	if err := scheduler.Start(); err != nil {
		a.log.Error().Err(err).Msg("scheduler start failed")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	return waitForShutdown(a.log, httpServer, scheduler, errCh)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, errCh <-chan error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error().Err(serveErr).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop(shutdownCtx)

	logger.Info().Msg("server exited cleanly")
	return serveErr
}
