package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pennywise/internal/amqp"
	"pennywise/internal/core"
	sheetmem "pennywise/internal/sheets/memory"
	"pennywise/internal/storage/memory"
)

type flakyExporter struct {
	fail  bool
	calls int
	inner *sheetmem.Sheet
}

func (f *flakyExporter) Append(ctx context.Context, tx core.Transaction) (string, error) {
	f.calls++
	if f.fail {
		return "", errors.New("sheets unavailable")
	}
	return f.inner.Append(ctx, tx)
}

func seedTx(t *testing.T, store *memory.Store, amount string) core.Transaction {
	t.Helper()
	tx, err := store.CreateTransaction(context.Background(), core.Transaction{
		OwnerID:  1,
		Date:     core.NewDate(2024, 7, 1),
		Category: "Food",
		Type:     core.Expense,
		Amount:   decimal.RequireFromString(amount).Neg(),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return tx
}

func pendingCount(t *testing.T, store *memory.Store) int {
	t.Helper()
	p, err := store.PendingExports(context.Background(), 100)
	if err != nil {
		t.Fatalf("PendingExports: %v", err)
	}
	return len(p)
}

func TestExportWorker_HandleExportMessage(t *testing.T) {
	store := memory.New()
	sheet := sheetmem.New()
	w := NewExportWorker(store, sheet, 10)
	ctx := context.Background()

	tx := seedTx(t, store, "10")
	if err := w.HandleExportMessage(ctx, amqp.NewTransactionExportMessage(tx.ID, tx.Version)); err != nil {
		t.Fatalf("HandleExportMessage: %v", err)
	}
	if len(sheet.Rows()) != 1 || pendingCount(t, store) != 0 {
		t.Fatalf("expected one exported row and nothing pending")
	}

	t.Run("missing transaction is acknowledged", func(t *testing.T) {
		if err := w.HandleExportMessage(ctx, amqp.NewTransactionExportMessage(999, 1)); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("superseded version is skipped", func(t *testing.T) {
		tx.Amount = decimal.NewFromInt(-20)
		updated, err := store.UpdateTransaction(ctx, tx)
		if err != nil {
			t.Fatalf("UpdateTransaction: %v", err)
		}
		if err := w.HandleExportMessage(ctx, amqp.NewTransactionExportMessage(tx.ID, 1)); err != nil {
			t.Fatalf("HandleExportMessage: %v", err)
		}
		if len(sheet.Rows()) != 1 {
			t.Fatalf("stale message exported a row")
		}
		if err := w.HandleExportMessage(ctx, amqp.NewTransactionExportMessage(tx.ID, updated.Version)); err != nil {
			t.Fatalf("HandleExportMessage: %v", err)
		}
		if rows := sheet.Rows(); len(rows) != 2 || rows[1][1] != int64(2) {
			t.Fatalf("expected version 2 row, got %v", rows)
		}
	})
}

func TestExportWorker_FailureMarksError(t *testing.T) {
	store := memory.New()
	exp := &flakyExporter{fail: true, inner: sheetmem.New()}
	w := NewExportWorker(store, exp, 10)
	ctx := context.Background()

	tx := seedTx(t, store, "5")
	if err := w.HandleExportMessage(ctx, amqp.NewTransactionExportMessage(tx.ID, tx.Version)); err == nil {
		t.Fatal("expected error when sheets fails")
	}
	if pendingCount(t, store) != 1 {
		t.Fatal("failed export should stay pending for the sweep")
	}

	exp.fail = false
	exported, failed, err := w.ProcessPending(ctx)
	if err != nil || exported != 1 || failed != 0 {
		t.Fatalf("ProcessPending = %d, %d, %v", exported, failed, err)
	}
	if pendingCount(t, store) != 0 {
		t.Fatal("sweep should have exported the failed row")
	}
}

func TestExportWorker_ProcessPendingBatches(t *testing.T) {
	store := memory.New()
	sheet := sheetmem.New()
	w := NewExportWorker(store, sheet, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedTx(t, store, "1")
	}

	exported, _, err := w.ProcessPending(ctx)
	if err != nil || exported != 2 {
		t.Fatalf("first batch exported %d (err=%v), want 2", exported, err)
	}
	if err := w.StartupCheck(ctx); err != nil {
		t.Fatalf("StartupCheck: %v", err)
	}
	if len(sheet.Rows()) != 5 || pendingCount(t, store) != 0 {
		t.Fatalf("expected all 5 rows exported, got %d", len(sheet.Rows()))
	}
}

func TestExportWorker_RunStopsOnCancel(t *testing.T) {
	store := memory.New()
	sheet := sheetmem.New()
	w := NewExportWorker(store, sheet, 10)
	seedTx(t, store, "3")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 5*time.Millisecond) }()

	deadline := time.After(2 * time.Second)
	for len(sheet.Rows()) == 0 {
		select {
		case <-deadline:
			t.Fatal("periodic sweep never exported the row")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestExportWorker_MessageAfterSweepIsNotReExported(t *testing.T) {
	store := memory.New()
	sheet := sheetmem.New()
	w := NewExportWorker(store, sheet, 10)
	ctx := context.Background()

	tx := seedTx(t, store, "12")
	if err := w.StartupCheck(ctx); err != nil {
		t.Fatalf("StartupCheck: %v", err)
	}
	// the message published on create is still queued
	if err := w.HandleExportMessage(ctx, amqp.NewTransactionExportMessage(tx.ID, tx.Version)); err != nil {
		t.Fatalf("HandleExportMessage: %v", err)
	}
	if rows := sheet.Rows(); len(rows) != 1 {
		t.Fatalf("rows in sheet for one transaction = %d, want 1", len(rows))
	}
}

type updatingExporter struct {
	inner    *sheetmem.Sheet
	onAppend func()
}

func (u *updatingExporter) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if u.onAppend != nil {
		u.onAppend()
		u.onAppend = nil
	}
	return u.inner.Append(ctx, tx)
}

func TestExportWorker_UpdateDuringExportStaysPending(t *testing.T) {
	store := memory.New()
	sheet := sheetmem.New()
	ctx := context.Background()

	tx := seedTx(t, store, "8")
	exp := &updatingExporter{inner: sheet, onAppend: func() {
		changed := tx
		changed.Amount = decimal.NewFromInt(-9)
		if _, err := store.UpdateTransaction(ctx, changed); err != nil {
			t.Errorf("UpdateTransaction: %v", err)
		}
	}}
	w := NewExportWorker(store, exp, 10)

	if err := w.HandleExportMessage(ctx, amqp.NewTransactionExportMessage(tx.ID, tx.Version)); err != nil {
		t.Fatalf("HandleExportMessage: %v", err)
	}

	pending, err := store.PendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("PendingExports: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Fatalf("updated version should stay pending, got %+v", pending)
	}

	exported, _, err := w.ProcessPending(ctx)
	if err != nil || exported != 1 {
		t.Fatalf("ProcessPending = %d, %v", exported, err)
	}
	rows := sheet.Rows()
	if len(rows) != 2 || rows[1][1] != int64(2) {
		t.Fatalf("expected the version 2 row after the sweep, got %v", rows)
	}
	if v, _ := store.ExportedVersion(ctx, tx.ID); v != 2 {
		t.Fatalf("ExportedVersion = %d, want 2", v)
	}
}
