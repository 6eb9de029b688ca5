package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nzoschke/cadence/internal/app"
	"github.com/nzoschke/cadence/internal/config"
	"github.com/nzoschke/cadence/internal/logger"
	"github.com/nzoschke/cadence/internal/routes"
	"github.com/nzoschke/cadence/internal/worker"
	"github.com/spf13/cobra"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the daily task worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Serve(cmd.Context())
		},
	}
}

// Serve runs the API until SIGINT or SIGTERM, then drains in-flight requests.
func Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if cfg.GenerationInterval > 0 {
		w := worker.NewDailyTaskWorker(a.RecurringGoalService, a.Clock.Today, cfg.GenerationInterval)
		go w.Run(ctx)
	} else {
		slog.Info("daily task worker disabled", "component", "worker")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: routes.SetupRoutes(a),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "url", "http://localhost:"+cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server shutting down", "timeout", cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func setup(ctx context.Context) (*config.Config, *app.App, error) {
	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return nil, nil, err
	}
	return cfg, a, nil
}

func closeApp(a *app.App) {
	err := a.Close()
	if err != nil {
		slog.Error("failed to close app", "error", err)
	}
}
