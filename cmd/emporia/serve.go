package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emporia/emporia/internal/logging"
	"github.com/emporia/emporia/internal/services"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the storefront API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Shutdown()

			slog.Info("Starting Emporia...", "env", cfg.Deployment.Env)

			mgr := services.NewManager(cfg, services.Options{RunServer: true})

			initCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := mgr.Init(initCtx); err != nil {
				mgr.Shutdown(context.Background())
				return fmt.Errorf("failed to initialize services: %w", err)
			}

			bgCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errs := mgr.Start(bgCtx)

			var runErr error
			select {
			case <-bgCtx.Done():
				slog.Info("Shutting down...")
			case runErr = <-errs:
			}
			stop()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer shutdownCancel()
			mgr.Shutdown(shutdownCtx)

			slog.Info("Emporia stopped")
			return runErr
		},
	}
}
