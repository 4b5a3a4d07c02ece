package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgie/internal/cli"
	"budgie/internal/config"
	"budgie/internal/export"
	applog "budgie/internal/log"
	"budgie/internal/sheets"
	gsheet "budgie/internal/sheets/google"
	"budgie/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(config.Config{})
	if err != nil {
		cli.Fatal(cli.SetupLogger(os.Stderr, slog.LevelInfo, applog.FormatText), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(os.Stdout, cfg.SlogLevel(), cfg.LogFormat).WithComponent(applog.ComponentWorker)
	logger.Info("Starting budgie-worker")

	if cfg.AMQPURL == "" {
		cli.Fatal(logger, "AMQP is required by the worker", errors.New("AMQP_URL is empty"))
	}

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
	if res.AMQP == nil {
		cli.Fatal(logger, "Failed to connect to AMQP", errors.New("broker unreachable"))
	}

	var writers []sheets.SnapshotWriter
	if cfg.ExportEnabled() {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetPrefix:     cfg.GoogleSheetPrefix,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		writers = append(writers, client)
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}
	if cfg.ExportFile != "" {
		writers = append(writers, export.FileWriter{Path: cfg.ExportFile})
		logger.Info("Workbook export enabled", "path", cfg.ExportFile)
	}
	if len(writers) == 0 {
		logger.Info("No export target configured, nothing to do")
		return
	}

	var cursor worker.ExportCursor
	if res.SQL != nil {
		cursor = res.SQL
	}
	syncWorker := worker.NewSyncWorker(res.Service, sheets.MultiWriter(writers...), cursor, cfg.TodayDate)

	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		// Not fatal; the consumer and the ticker retry.
		logger.Error("Failed startup sync check", applog.FieldError, err)
	}

	processor := worker.NewProcessor(syncWorker, worker.ProcessorConfig{Interval: cfg.ExportInterval})
	if err := processor.Start(ctx); err != nil {
		cli.Fatal(logger, "Failed to start export processor", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := res.AMQP.Consume(gctx, syncWorker.HandleEventAppended)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return processor.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
