package storage

import (
	"context"
	"database/sql"
	"fmt"

	"pennywise/internal/core"
)

const goalColumns = "id, owner_id, title, target_amount, current_amount, deadline, category"

func scanGoal(s rowScanner) (core.Goal, error) {
	var (
		g        core.Goal
		deadline sql.NullString
	)
	if err := s.Scan(&g.ID, &g.OwnerID, &g.Title, &g.TargetAmount, &g.CurrentAmount, &deadline, &g.Category); err != nil {
		return g, err
	}
	d, err := parseNullDate(deadline)
	if err != nil {
		return g, fmt.Errorf("goal %d deadline: %w", g.ID, err)
	}
	g.Deadline = d
	return g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (owner_id, title, target_amount, current_amount, deadline, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.OwnerID, g.Title, g.TargetAmount.String(), g.CurrentAmount.String(), nullDate(g.Deadline), g.Category, ts, ts)
	if err != nil {
		return g, fmt.Errorf("insert goal: %w", err)
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return g, fmt.Errorf("goal id: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET title = ?, target_amount = ?, current_amount = ?, deadline = ?, category = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		g.Title, g.TargetAmount.String(), g.CurrentAmount.String(), nullDate(g.Deadline), g.Category, now(),
		g.ID, g.OwnerID)
	if err != nil {
		return g, fmt.Errorf("update goal: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return g, err
	}
	return g, nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) FindGoal(ctx context.Context, ownerID, id int64) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE id = ? AND owner_id = ?", id, ownerID)
	g, err := scanGoal(row)
	if err != nil {
		return core.Goal{}, notFound(err)
	}
	return g, nil
}

func (r *SQLiteRepository) FindGoalsByOwner(ctx context.Context, ownerID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE owner_id = ? ORDER BY id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
