package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/ports"
)

// PendingExports returns transactions not yet copied to the spreadsheet,
// oldest first. Rows that previously failed are retried.
func (r *SQLiteRepository) PendingExports(ctx context.Context, limit int) ([]ports.PendingExport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM transactions
		 WHERE export_status != 'exported'
		 ORDER BY created_at, id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending exports: %w", err)
	}
	defer rows.Close()

	var out []ports.PendingExport
	for rows.Next() {
		var (
			p       ports.PendingExport
			created int64
		)
		if err := rows.Scan(&p.ID, &p.Version, &created); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		p.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetTransactionByID loads a transaction regardless of owner.
func (r *SQLiteRepository) GetTransactionByID(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+txColumns+" FROM transactions WHERE id = ?", id)
	tx, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	return tx, nil
}

func (r *SQLiteRepository) ExportedVersion(ctx context.Context, id int64) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx, `SELECT exported_version FROM transactions WHERE id = ?`, id).Scan(&v)
	if err != nil {
		return 0, notFound(err)
	}
	return v, nil
}

// MarkExported is a no-op when the row moved past version in the meantime,
// leaving the newer version pending.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id, version int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET export_status = 'exported', exported_version = ?, exported_at = ?
		 WHERE id = ? AND version = ?`, version, now(), id, version)
	if err != nil {
		return false, fmt.Errorf("mark transaction exported: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark transaction exported: %w", err)
	}
	if n == 0 {
		slog.InfoContext(ctx, "Transaction changed during export, left pending", "id", id, "version", version)
		return false, nil
	}

	slog.InfoContext(ctx, "Transaction marked as exported", "id", id, "version", version)
	return true, nil
}

func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction export error: %w", err)
	}

	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}
