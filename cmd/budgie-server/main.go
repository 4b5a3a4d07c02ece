package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgie/internal/cli"
	"budgie/internal/config"
	apphttp "budgie/internal/http"
	applog "budgie/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(config.Config{})
	if err != nil {
		cli.Fatal(cli.SetupLogger(os.Stderr, slog.LevelInfo, applog.FormatText), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(os.Stdout, cfg.SlogLevel(), cfg.LogFormat)

	ctx, stop := cli.ShutdownContext(context.Background(), logger)
	defer stop()

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to open event store", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Failed to close backend", applog.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, res.Service, apphttp.Options{
		Logger:    logger,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
		Today:     cfg.TodayDate,

		TrustedProxies: cfg.TrustedProxies,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting budgie server", "port", cfg.Port, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
