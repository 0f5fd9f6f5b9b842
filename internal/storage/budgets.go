package storage

import (
	"context"
	"fmt"

	"pennywise/internal/core"
)

const budgetColumns = "id, owner_id, category, month, amount"

func scanBudget(s rowScanner) (core.Budget, error) {
	var (
		b     core.Budget
		month string
	)
	if err := s.Scan(&b.ID, &b.OwnerID, &b.Category, &month, &b.Amount); err != nil {
		return b, err
	}
	m, err := core.ParseMonth(month)
	if err != nil {
		return b, fmt.Errorf("budget %d month %q: %w", b.ID, month, err)
	}
	b.Month = m
	return b, nil
}

func (r *SQLiteRepository) queryBudgets(ctx context.Context, where string, args ...any) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE "+where+" ORDER BY month DESC, category, id", args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (owner_id, category, month, amount, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.OwnerID, b.Category, b.Month.MonthStart().String(), b.Amount.String(), ts, ts)
	if isUniqueViolation(err) {
		return b, core.ErrDuplicateBudget
	}
	if err != nil {
		return b, fmt.Errorf("insert budget: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return b, fmt.Errorf("budget id: %w", err)
	}
	b.Month = b.Month.MonthStart()
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category = ?, month = ?, amount = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		b.Category, b.Month.MonthStart().String(), b.Amount.String(), now(), b.ID, b.OwnerID)
	if isUniqueViolation(err) {
		return b, core.ErrDuplicateBudget
	}
	if err != nil {
		return b, fmt.Errorf("update budget: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return b, err
	}
	b.Month = b.Month.MonthStart()
	return b, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) FindBudget(ctx context.Context, ownerID, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE id = ? AND owner_id = ?", id, ownerID)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, notFound(err)
	}
	return b, nil
}

func (r *SQLiteRepository) FindBudgetsByOwner(ctx context.Context, ownerID int64) ([]core.Budget, error) {
	return r.queryBudgets(ctx, "owner_id = ?", ownerID)
}

func (r *SQLiteRepository) FindBudgetsByOwnerAndMonth(ctx context.Context, ownerID int64, month core.Date) ([]core.Budget, error) {
	return r.queryBudgets(ctx, "owner_id = ? AND month = ?", ownerID, month.MonthStart().String())
}

func (r *SQLiteRepository) FindBudgetByOwnerAndCategoryAndMonth(ctx context.Context, ownerID int64, category string, month core.Date) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE owner_id = ? AND category = ? AND month = ?",
		ownerID, category, month.MonthStart().String())
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, notFound(err)
	}
	return b, nil
}
