package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"pennywise/internal/cli"
	"pennywise/internal/log"
	gsheet "pennywise/internal/sheets/google"
	"pennywise/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting pennywise-worker")

	// The worker reads rows the server wrote, so it needs the shared database.
	if cfg.DataBackend != "sqlite" {
		logger.Error("Worker requires DATA_BACKEND=sqlite", "data_backend", cfg.DataBackend)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("Worker requires GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	// The server holds the bolt file lock and the worker never reads quotas.
	cfg.QuotaBackend = "store"

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	sheetsClient, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	if err := sheetsClient.EnsureHeader(ctx); err != nil {
		logger.Error("Failed to write sheet header", "error", err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(res.Stores.Exports, sheetsClient, cfg.ExportBatchSize)

	// On startup, export any transactions whose messages were missed
	logger.Info("Performing startup export check...")
	if err := exportWorker.StartupCheck(ctx); err != nil {
		logger.Error("Failed startup export check", "error", err)
		// Don't exit - continue with normal operation
	}

	g, gctx := errgroup.WithContext(ctx)

	if res.AMQP != nil {
		g.Go(func() error {
			err := res.AMQP.ConsumeTransactionExports(gctx, exportWorker.HandleExportMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP message consumption - relying on periodic export only")
	}

	// Periodic export for any missed messages
	g.Go(func() error {
		return exportWorker.Run(gctx, cfg.ExportInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
