package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pennywise/internal/ports"
)

func (r *SQLiteRepository) Consumed(ctx context.Context, ownerID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT consumed FROM advisory_usage WHERE owner_id = ?`, ownerID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read advisory usage: %w", err)
	}
	return n, nil
}

// Increment upserts the counter with a guard on the current value, so two
// writers racing at limit-1 cannot both succeed.
func (r *SQLiteRepository) Increment(ctx context.Context, ownerID int64, limit int) (int, error) {
	if limit <= 0 {
		return 0, ports.ErrQuotaExhausted
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin advisory increment: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO advisory_usage (owner_id, consumed, updated_at) VALUES (?, 1, ?)
		 ON CONFLICT (owner_id) DO UPDATE
		 SET consumed = consumed + 1, updated_at = excluded.updated_at
		 WHERE consumed < ?`,
		ownerID, now(), limit)
	if err != nil {
		return 0, fmt.Errorf("increment advisory usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("increment advisory usage: %w", err)
	}
	if n == 0 {
		return limit, ports.ErrQuotaExhausted
	}

	var consumed int
	if err := tx.QueryRowContext(ctx, `SELECT consumed FROM advisory_usage WHERE owner_id = ?`, ownerID).Scan(&consumed); err != nil {
		return 0, fmt.Errorf("read advisory usage: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit advisory increment: %w", err)
	}
	return consumed, nil
}
