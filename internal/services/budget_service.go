package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pennywise/internal/core"
	"pennywise/internal/ledger"
	"pennywise/internal/ports"
)

// BudgetService manages monthly category budgets. Every read returns the
// budget joined with its spend, which is recomputed from expenses each time.
type BudgetService struct {
	budgets ports.BudgetStore
	txs     ports.TransactionStore
}

func NewBudgetService(budgets ports.BudgetStore, txs ports.TransactionStore) *BudgetService {
	return &BudgetService{budgets: budgets, txs: txs}
}

func (s *BudgetService) Create(ctx context.Context, ownerID int64, b core.Budget) (core.BudgetView, error) {
	b.ID = 0
	b.OwnerID = ownerID
	b, err := prepareBudget(b)
	if err != nil {
		return core.BudgetView{}, err
	}
	if err := s.ensureUnique(ctx, b); err != nil {
		return core.BudgetView{}, err
	}

	saved, err := s.budgets.CreateBudget(ctx, b)
	if err != nil {
		return core.BudgetView{}, fmt.Errorf("save budget: %w", err)
	}
	return s.view(ctx, saved)
}

// Update replaces category, month and amount. Uniqueness is checked again
// only when category or month changes.
func (s *BudgetService) Update(ctx context.Context, ownerID, id int64, b core.Budget) (core.BudgetView, error) {
	existing, err := s.budgets.FindBudget(ctx, ownerID, id)
	if err != nil {
		return core.BudgetView{}, fmt.Errorf("get budget %d: %w", id, err)
	}

	b.ID = id
	b.OwnerID = ownerID
	b, err = prepareBudget(b)
	if err != nil {
		return core.BudgetView{}, err
	}
	if b.Category != existing.Category || !b.Month.Equal(existing.Month.Time) {
		if err := s.ensureUnique(ctx, b); err != nil {
			return core.BudgetView{}, err
		}
	}

	saved, err := s.budgets.UpdateBudget(ctx, b)
	if err != nil {
		return core.BudgetView{}, fmt.Errorf("update budget %d: %w", id, err)
	}
	return s.view(ctx, saved)
}

func (s *BudgetService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.budgets.DeleteBudget(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}

func (s *BudgetService) Get(ctx context.Context, ownerID, id int64) (core.BudgetView, error) {
	b, err := s.budgets.FindBudget(ctx, ownerID, id)
	if err != nil {
		return core.BudgetView{}, fmt.Errorf("get budget %d: %w", id, err)
	}
	return s.view(ctx, b)
}

func (s *BudgetService) List(ctx context.Context, ownerID int64) ([]core.BudgetView, error) {
	budgets, err := s.budgets.FindBudgetsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return s.views(ctx, budgets)
}

func (s *BudgetService) ListByMonth(ctx context.Context, ownerID int64, month core.Date) ([]core.BudgetView, error) {
	budgets, err := s.budgets.FindBudgetsByOwnerAndMonth(ctx, ownerID, month.MonthStart())
	if err != nil {
		return nil, fmt.Errorf("list budgets for %s: %w", month.Format("2006-01"), err)
	}
	return s.views(ctx, budgets)
}

func (s *BudgetService) GetByCategoryAndMonth(ctx context.Context, ownerID int64, category string, month core.Date) (core.BudgetView, error) {
	b, err := s.budgets.FindBudgetByOwnerAndCategoryAndMonth(ctx, ownerID, strings.TrimSpace(category), month.MonthStart())
	if err != nil {
		return core.BudgetView{}, fmt.Errorf("get budget %s/%s: %w", category, month.Format("2006-01"), err)
	}
	return s.view(ctx, b)
}

func prepareBudget(b core.Budget) (core.Budget, error) {
	b.Category = strings.TrimSpace(b.Category)
	if err := b.Validate(); err != nil {
		return b, err
	}
	b.Month = b.Month.MonthStart()
	return b, nil
}

func (s *BudgetService) ensureUnique(ctx context.Context, b core.Budget) error {
	found, err := s.budgets.FindBudgetByOwnerAndCategoryAndMonth(ctx, b.OwnerID, b.Category, b.Month)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check budget uniqueness: %w", err)
	case found.ID != b.ID:
		return fmt.Errorf("%w: %s %s", core.ErrDuplicateBudget, b.Category, b.Month.Format("2006-01"))
	}
	return nil
}

func (s *BudgetService) view(ctx context.Context, b core.Budget) (core.BudgetView, error) {
	expenses, err := s.txs.FindByOwnerAndCategoryAndTypeAndDateRange(ctx,
		b.OwnerID, b.Category, core.Expense, b.Month.MonthStart(), b.Month.MonthEnd())
	if err != nil {
		return core.BudgetView{}, fmt.Errorf("budget %d spend: %w", b.ID, err)
	}
	return ledger.Valuate(b, expenses), nil
}

func (s *BudgetService) views(ctx context.Context, budgets []core.Budget) ([]core.BudgetView, error) {
	out := make([]core.BudgetView, 0, len(budgets))
	for _, b := range budgets {
		v, err := s.view(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
