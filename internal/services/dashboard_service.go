package services

import (
	"context"
	"fmt"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/ledger"
	"pennywise/internal/ports"
)

// MaxTrendMonths bounds SpendingTrends so a single request cannot ask for an
// arbitrarily long series.
const MaxTrendMonths = 120

// DashboardService computes the dashboard views from an owner's transactions.
// Nothing it returns is stored.
type DashboardService struct {
	txs        ports.TransactionStore
	quota      ports.QuotaStore
	quotaLimit int
	now        func() time.Time
}

func NewDashboardService(txs ports.TransactionStore, quota ports.QuotaStore, quotaLimit int) *DashboardService {
	return &DashboardService{txs: txs, quota: quota, quotaLimit: quotaLimit, now: time.Now}
}

// Today is the service clock's current date.
func (s *DashboardService) Today() core.Date {
	return core.DateOf(s.now())
}

// Summary computes every dashboard metric for the month containing asOf.
// A zero asOf means today.
func (s *DashboardService) Summary(ctx context.Context, ownerID int64, asOf core.Date) (core.DashboardSummary, error) {
	if asOf.IsZero() {
		asOf = s.Today()
	}

	txs, err := s.txs.FindByOwnerAndDateRange(ctx, ownerID, core.EpochFloor, asOf.MonthEnd())
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("load transactions: %w", err)
	}

	summary := ledger.Summarize(txs, asOf)

	consumed, err := s.quota.Consumed(ctx, ownerID)
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("load advisory usage: %w", err)
	}
	summary.GenerationsLeft = max(0, s.quotaLimit-consumed)
	return summary, nil
}

// ExpenseBreakdown totals expenses per category in [start, end], largest first.
func (s *DashboardService) ExpenseBreakdown(ctx context.Context, ownerID int64, start, end core.Date) ([]core.CategoryAmount, error) {
	if start.After(end.Time) {
		return nil, fmt.Errorf("%w: start %s is after end %s", core.ErrInvalidDate, start, end)
	}
	expenses, err := s.txs.FindByOwnerAndTypeAndDateRange(ctx, ownerID, core.Expense, start, end)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return ledger.SortedBreakdown(ledger.CategoryBreakdown(expenses)), nil
}

// SpendingTrends returns one entry per month for the last months months,
// ending with the current month, oldest first.
func (s *DashboardService) SpendingTrends(ctx context.Context, ownerID int64, months int) ([]core.MonthlyTrend, error) {
	if months < 1 || months > MaxTrendMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d, got %d", core.ErrInvalidPeriod, MaxTrendMonths, months)
	}

	anchor := s.Today().MonthStart()
	txs, err := s.txs.FindByOwnerAndDateRange(ctx, ownerID, anchor.AddMonths(-(months - 1)), anchor.MonthEnd())
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return ledger.MonthlyTrend(txs, anchor, months), nil
}

// CurrentMonthOverview summarizes the calendar month containing today.
func (s *DashboardService) CurrentMonthOverview(ctx context.Context, ownerID int64) (core.MonthlyOverview, error) {
	month := s.Today().MonthStart()
	txs, err := s.txs.FindByOwnerAndDateRange(ctx, ownerID, month, month.MonthEnd())
	if err != nil {
		return core.MonthlyOverview{}, fmt.Errorf("load transactions: %w", err)
	}
	return ledger.Overview(txs, month), nil
}
