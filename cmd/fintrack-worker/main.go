package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
	"fintrack/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	base := log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})
	log.SetDefault(base)
	logger := base.WithComponent(log.ComponentWorker)

	logger.Info("Starting fintrack-worker")

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker failed", log.FieldError, err)
		stop()
		os.Exit(1)
	}
}

// run owns every resource it opens, so its deferred closes run before main
// decides the exit code.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	// The web server writes the same database; the worker only reads it.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("initialize SQLite repository at %s: %w", cfg.SQLiteDBPath, err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("SQLite close failed", log.FieldError, err)
		}
	}()

	writer, err := newSnapshotWriter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("AMQP close failed", log.FieldError, err)
		}
	}()

	processor := services.NewExportProcessor(repo, writer, services.ExportProcessorConfig{
		Interval: cfg.ExportInterval,
	})
	if err := processor.Start(ctx); err != nil {
		return fmt.Errorf("start export processor: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.NewExportWorker(processor).Run(gctx, client)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", log.FieldError, err)
	} else {
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Export processor did not stop in time", log.FieldError, err)
	}
	logger.Info("Worker stopped", "last_export", processor.LastExport())
	return nil
}

// newSnapshotWriter exports to Google Sheets when a spreadsheet is configured
// and keeps snapshots in memory otherwise, which makes the worker a dry run.
func newSnapshotWriter(ctx context.Context, cfg *config.Config) (sheets.SnapshotWriter, error) {
	if !cfg.ExportsToSheets() {
		log.FromContext(ctx).WarnContext(ctx, "GOOGLE_SPREADSHEET_ID not set, snapshots are kept in memory only")
		return memory.New(), nil
	}
	return gsheet.NewFromConfig(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		LedgerSheet:     cfg.GoogleSheetName,
		SummarySheet:    cfg.GoogleSummarySheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
}
