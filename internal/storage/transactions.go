package storage

import (
	"context"
	"fmt"
	"log/slog"

	"pennywise/internal/core"
)

const txColumns = "id, owner_id, date, description, category, type, amount, version"

const txOrder = " ORDER BY date DESC, id DESC"

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		date, typ string
	)
	if err := s.Scan(&tx.ID, &tx.OwnerID, &date, &tx.Description, &tx.Category, &typ, &tx.Amount, &tx.Version); err != nil {
		return tx, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return tx, fmt.Errorf("transaction %d date %q: %w", tx.ID, date, err)
	}
	t, err := core.ParseTxType(typ)
	if err != nil {
		return tx, fmt.Errorf("transaction %d: %w", tx.ID, err)
	}
	tx.Date, tx.Type = d, t
	return tx, nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, where string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+txColumns+" FROM transactions WHERE "+where+txOrder, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (owner_id, date, description, category, type, amount, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.OwnerID, tx.Date.String(), tx.Description, tx.Category, tx.Type.String(), tx.Amount.String(), ts, ts)
	if err != nil {
		return tx, fmt.Errorf("insert transaction: %w", err)
	}
	if tx.ID, err = res.LastInsertId(); err != nil {
		return tx, fmt.Errorf("transaction id: %w", err)
	}
	tx.Version = 1

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"owner_id", tx.OwnerID,
		"type", tx.Type.String(),
		"amount", tx.Amount.String())

	return tx, nil
}

// UpdateTransaction bumps the row version and re-queues it for export.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	err := r.db.QueryRowContext(ctx,
		`UPDATE transactions
		 SET date = ?, description = ?, category = ?, type = ?, amount = ?,
		     version = version + 1, export_status = 'pending', updated_at = ?
		 WHERE id = ? AND owner_id = ?
		 RETURNING version`,
		tx.Date.String(), tx.Description, tx.Category, tx.Type.String(), tx.Amount.String(), now(),
		tx.ID, tx.OwnerID).Scan(&tx.Version)
	if err != nil {
		return tx, notFound(err)
	}
	return tx, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) FindTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE id = ? AND owner_id = ?", id, ownerID)
	tx, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	return tx, nil
}

func (r *SQLiteRepository) FindByOwner(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, "owner_id = ?", ownerID)
}

func (r *SQLiteRepository) FindByOwnerAndDateRange(ctx context.Context, ownerID int64, start, end core.Date) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, "owner_id = ? AND date BETWEEN ? AND ?",
		ownerID, start.String(), end.String())
}

func (r *SQLiteRepository) FindByOwnerAndTypeAndDateRange(ctx context.Context, ownerID int64, t core.TxType, start, end core.Date) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, "owner_id = ? AND type = ? AND date BETWEEN ? AND ?",
		ownerID, t.String(), start.String(), end.String())
}

func (r *SQLiteRepository) FindByOwnerAndCategoryAndTypeAndDateRange(ctx context.Context, ownerID int64, category string, t core.TxType, start, end core.Date) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, "owner_id = ? AND category = ? AND type = ? AND date BETWEEN ? AND ?",
		ownerID, category, t.String(), start.String(), end.String())
}

func (r *SQLiteRepository) FindByOwnerAndType(ctx context.Context, ownerID int64, t core.TxType) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, "owner_id = ? AND type = ?", ownerID, t.String())
}

func (r *SQLiteRepository) FindByOwnerAndCategory(ctx context.Context, ownerID int64, category string) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, "owner_id = ? AND category = ?", ownerID, category)
}

// SearchByOwnerAndDescription matches keyword anywhere in the description, ignoring ASCII case.
func (r *SQLiteRepository) SearchByOwnerAndDescription(ctx context.Context, ownerID int64, keyword string) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, "owner_id = ? AND instr(lower(description), lower(?)) > 0", ownerID, keyword)
}
