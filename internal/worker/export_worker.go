// Package worker copies saved transactions to the external spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pennywise/internal/amqp"
	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/ports"
	"pennywise/internal/sheets"
)

// ExportWorker handles export messages and periodically re-exports
// transactions whose message was lost.
type ExportWorker struct {
	queue     ports.ExportQueue
	exporter  sheets.TransactionExporter
	batchSize int

	// serializes message handling and sweeps so a row is never appended twice
	mu sync.Mutex
}

func NewExportWorker(queue ports.ExportQueue, exporter sheets.TransactionExporter, batchSize int) *ExportWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &ExportWorker{queue: queue, exporter: exporter, batchSize: batchSize}
}

// HandleExportMessage processes a single export message from AMQP. Messages
// for deleted transactions, superseded versions or versions a sweep already
// exported are acknowledged without exporting.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.TransactionExportMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	slog.InfoContext(ctx, "Processing export message",
		"id", msg.ID,
		"version", msg.Version)

	tx, err := w.queue.GetTransactionByID(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Transaction no longer exists, skipping export", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if tx.Version > msg.Version {
		slog.DebugContext(ctx, "Skipping superseded export message",
			"id", msg.ID,
			"message_version", msg.Version,
			"current_version", tx.Version)
		return nil
	}

	exportedVersion, err := w.queue.ExportedVersion(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get exported version: %w", err)
	}
	if exportedVersion >= tx.Version {
		slog.DebugContext(ctx, "Transaction version already exported",
			"id", msg.ID,
			"version", tx.Version)
		return nil
	}

	if err := w.export(ctx, tx); err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}
	return nil
}

// ProcessPending exports up to one batch of transactions that are not yet in
// the spreadsheet. It is the backup path for lost messages.
func (w *ExportWorker) ProcessPending(ctx context.Context) (exported, failed int, err error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupCheck drains a larger batch once when the worker starts.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	exported, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup export check: %w", err)
	}
	if exported+failed == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup export completed",
		"exported", exported,
		"errors", failed)
	return nil
}

// Run calls ProcessPending on every tick until ctx is done.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, _, err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}

func (w *ExportWorker) processPending(ctx context.Context, limit int) (exported, failed int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending, err := w.queue.PendingExports(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending exports: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, p := range pending {
		if ctx.Err() != nil {
			return exported, failed, ctx.Err()
		}

		tx, err := w.queue.GetTransactionByID(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "id", p.ID, "error", err)
			failed++
			continue
		}
		if err := w.export(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", p.ID, "error", err)
			failed++
			continue
		}
		exported++
	}
	return exported, failed, nil
}

func (w *ExportWorker) export(ctx context.Context, tx core.Transaction) error {
	ref, err := w.exporter.Append(ctx, tx)
	if err != nil {
		if markErr := w.queue.MarkExportError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	// the row is already in the sheet; a failed mark only means a later re-export
	if _, err := w.queue.MarkExported(ctx, tx.ID, tx.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully exported transaction",
		log.FieldTransactionID, tx.ID,
		"version", tx.Version,
		log.FieldSheetsRef, ref)
	return nil
}
