package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sefariaproxy/config"
	"sefariaproxy/internal/app"
	"sefariaproxy/internal/logging"
	"sefariaproxy/internal/version"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP proxy (default)",
		RunE:  runServe,
	}
}

// loadConfig reads the configuration and installs the process logger.
func loadConfig() (*config.LoadResult, error) {
	result, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logging.Setup(logging.Options{
		Format: result.Config.Logging.Format,
		Level:  result.Config.Logging.Level,
	}); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return result, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	result, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("starting sefariaproxy",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	application, err := app.New(cmd.Context(), app.Config{AppConfig: result})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := application.Shutdown(ctx); err != nil {
			slog.Error("application shutdown error", "error", err)
		}
	}()

	if err := application.Start(":" + result.Config.Server.Port); err != nil {
		_ = application.Shutdown(context.Background())
		return err
	}
	<-stopped
	return nil
}
