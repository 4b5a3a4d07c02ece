// Package cli provides common initialization utilities shared by
// cmd/budgie, cmd/budgie-server and cmd/budgie-worker.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgie/internal/backend"
	"budgie/internal/config"
	applog "budgie/internal/log"
)

// SetupLogger initializes structured logging at the given level and format
// ("text" or "json") and sets it as the default logger.
func SetupLogger(w io.Writer, level slog.Level, format string) *applog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    format,
		Output:    w,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, applies overrides and
// validates the result.
func LoadAndValidateConfig(overrides config.Config) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Merge(overrides); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenBackend creates the configured event store and budget service.
func OpenBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}
	return res, nil
}

// Fatal logs the error and exits the process.
func Fatal(logger *applog.Logger, msg string, err error) {
	logger.Error(msg, applog.FieldError, err)
	os.Exit(1)
}

// ShutdownContext returns a context cancelled by the first SIGINT or
// SIGTERM. The signal is logged once; stop releases the handler.
func ShutdownContext(parent context.Context, logger *applog.Logger) (ctx context.Context, stop context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigs:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigs)
		cancel()
	}
}
