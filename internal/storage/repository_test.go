package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
	"pennywise/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "pennywise.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCreateTx(t *testing.T, repo *SQLiteRepository, owner int64, date core.Date, typ core.TxType, category, desc, amount string) core.Transaction {
	t.Helper()
	tx, err := core.Normalize(core.Transaction{
		OwnerID:     owner,
		Date:        date,
		Description: desc,
		Category:    category,
		Type:        typ,
		Amount:      decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	created, err := repo.CreateTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return created
}

func TestSQLiteRepository_Transactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	salary := mustCreateTx(t, repo, 1, core.NewDate(2024, 7, 1), core.Income, "Salary", "July pay", "2000")
	food := mustCreateTx(t, repo, 1, core.NewDate(2024, 7, 5), core.Expense, "Food", "Groceries", "45.50")
	mustCreateTx(t, repo, 1, core.NewDate(2024, 6, 20), core.Expense, "Rent", "June rent", "800")
	mustCreateTx(t, repo, 2, core.NewDate(2024, 7, 5), core.Expense, "Food", "Other owner", "10")

	got, err := repo.FindTransaction(ctx, 1, food.ID)
	if err != nil {
		t.Fatalf("FindTransaction: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("-45.5")) || got.Type != core.Expense || got.Date.String() != "2024-07-05" {
		t.Fatalf("unexpected transaction: %+v", got)
	}

	if _, err := repo.FindTransaction(ctx, 2, food.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}

	all, err := repo.FindByOwner(ctx, 1)
	if err != nil {
		t.Fatalf("FindByOwner: %v", err)
	}
	if len(all) != 3 || all[0].ID != food.ID || all[2].Category != "Rent" {
		t.Fatalf("unexpected order or count: %+v", all)
	}

	tests := []struct {
		name  string
		query func() ([]core.Transaction, error)
		want  int
	}{
		{"date range", func() ([]core.Transaction, error) {
			return repo.FindByOwnerAndDateRange(ctx, 1, core.NewDate(2024, 7, 1), core.NewDate(2024, 7, 31))
		}, 2},
		{"type and range", func() ([]core.Transaction, error) {
			return repo.FindByOwnerAndTypeAndDateRange(ctx, 1, core.Expense, core.NewDate(2024, 6, 1), core.NewDate(2024, 7, 31))
		}, 2},
		{"category type range", func() ([]core.Transaction, error) {
			return repo.FindByOwnerAndCategoryAndTypeAndDateRange(ctx, 1, "Food", core.Expense, core.NewDate(2024, 7, 1), core.NewDate(2024, 7, 5))
		}, 1},
		{"type", func() ([]core.Transaction, error) { return repo.FindByOwnerAndType(ctx, 1, core.Income) }, 1},
		{"category", func() ([]core.Transaction, error) { return repo.FindByOwnerAndCategory(ctx, 1, "Rent") }, 1},
		{"keyword", func() ([]core.Transaction, error) { return repo.SearchByOwnerAndDescription(ctx, 1, "GROC") }, 1},
		{"keyword miss", func() ([]core.Transaction, error) { return repo.SearchByOwnerAndDescription(ctx, 1, "coffee") }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.query()
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d rows, want %d", len(got), tt.want)
			}
		})
	}

	salary.Amount = decimal.NewFromInt(2100)
	if _, err := repo.UpdateTransaction(ctx, salary); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	updated, err := repo.UpdateTransaction(ctx, salary)
	if err != nil || updated.Version != 3 {
		t.Fatalf("expected version 3 after second update, got %d (err=%v)", updated.Version, err)
	}
	byID, err := repo.GetTransactionByID(ctx, salary.ID)
	if err != nil || byID.Version != 3 || !byID.Amount.Equal(decimal.NewFromInt(2100)) {
		t.Fatalf("GetTransactionByID = %+v, %v", byID, err)
	}
	if _, err := repo.UpdateTransaction(ctx, core.Transaction{ID: salary.ID, OwnerID: 2, Date: salary.Date, Type: core.Income}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update by foreign owner should be not found, got %v", err)
	}

	if err := repo.DeleteTransaction(ctx, 1, salary.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, 1, salary.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSQLiteRepository_ExportQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := mustCreateTx(t, repo, 1, core.NewDate(2024, 7, 1), core.Income, "Salary", "", "100")
	b := mustCreateTx(t, repo, 1, core.NewDate(2024, 7, 2), core.Expense, "Food", "", "5")

	pending, err := repo.PendingExports(ctx, 10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d (err=%v)", len(pending), err)
	}

	if ok, err := repo.MarkExported(ctx, a.ID, a.Version); err != nil || !ok {
		t.Fatalf("MarkExported = %v, %v", ok, err)
	}
	if v, err := repo.ExportedVersion(ctx, a.ID); err != nil || v != a.Version {
		t.Fatalf("ExportedVersion = %d, %v; want %d", v, err, a.Version)
	}
	if err := repo.MarkExportError(ctx, b.ID); err != nil {
		t.Fatalf("MarkExportError: %v", err)
	}

	pending, _ = repo.PendingExports(ctx, 10)
	if len(pending) != 1 || pending[0].ID != b.ID || pending[0].Version != 1 {
		t.Fatalf("expected only the failed row to remain pending, got %+v", pending)
	}
}

func TestSQLiteRepository_MarkExportedStaleVersion(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx := mustCreateTx(t, repo, 1, core.NewDate(2024, 7, 1), core.Expense, "Food", "lunch", "12")
	tx.Description = "team lunch"
	updated, err := repo.UpdateTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}

	ok, err := repo.MarkExported(ctx, tx.ID, 1)
	if err != nil {
		t.Fatalf("MarkExported: %v", err)
	}
	if ok {
		t.Fatal("marking a superseded version should be a no-op")
	}
	pending, _ := repo.PendingExports(ctx, 10)
	if len(pending) != 1 || pending[0].Version != updated.Version {
		t.Fatalf("expected version %d pending, got %+v", updated.Version, pending)
	}
	if v, _ := repo.ExportedVersion(ctx, tx.ID); v != 0 {
		t.Fatalf("ExportedVersion = %d, want 0", v)
	}

	if _, err := repo.ExportedVersion(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRepository_Budgets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	july := core.NewDate(2024, 7, 15)
	b, err := repo.CreateBudget(ctx, core.Budget{OwnerID: 1, Category: "Food", Month: july, Amount: decimal.NewFromInt(200)})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if b.Month.Day() != 1 {
		t.Fatalf("month should be normalized to day 1, got %s", b.Month)
	}

	_, err = repo.CreateBudget(ctx, core.Budget{OwnerID: 1, Category: "Food", Month: july, Amount: decimal.NewFromInt(50)})
	if !errors.Is(err, core.ErrDuplicateBudget) {
		t.Fatalf("expected ErrDuplicateBudget, got %v", err)
	}

	// Same category and month for another owner is fine
	if _, err := repo.CreateBudget(ctx, core.Budget{OwnerID: 2, Category: "Food", Month: july, Amount: decimal.NewFromInt(50)}); err != nil {
		t.Fatalf("CreateBudget other owner: %v", err)
	}

	found, err := repo.FindBudgetByOwnerAndCategoryAndMonth(ctx, 1, "Food", core.NewDate(2024, 7, 1))
	if err != nil || found.ID != b.ID {
		t.Fatalf("FindBudgetByOwnerAndCategoryAndMonth = %+v, %v", found, err)
	}
	if _, err := repo.FindBudgetByOwnerAndCategoryAndMonth(ctx, 1, "Food", core.NewDate(2024, 8, 1)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := repo.FindBudgetsByOwnerAndMonth(ctx, 1, july)
	if err != nil || len(list) != 1 {
		t.Fatalf("FindBudgetsByOwnerAndMonth = %d, %v", len(list), err)
	}

	b.Amount = decimal.RequireFromString("250.75")
	if _, err := repo.UpdateBudget(ctx, b); err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	got, _ := repo.FindBudget(ctx, 1, b.ID)
	if !got.Amount.Equal(decimal.RequireFromString("250.75")) {
		t.Fatalf("amount not updated: %s", got.Amount)
	}

	if err := repo.DeleteBudget(ctx, 2, b.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign owner delete should be not found, got %v", err)
	}
}

func TestSQLiteRepository_GoalsAndCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	g, err := repo.CreateGoal(ctx, core.Goal{
		OwnerID:       1,
		Title:         "Emergency fund",
		TargetAmount:  decimal.NewFromInt(5000),
		CurrentAmount: decimal.NewFromInt(1200),
		Category:      "Savings",
	})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	got, err := repo.FindGoal(ctx, 1, g.ID)
	if err != nil || !got.Deadline.IsZero() || got.Title != "Emergency fund" {
		t.Fatalf("FindGoal = %+v, %v", got, err)
	}
	g.Deadline = core.NewDate(2025, 12, 31)
	if _, err := repo.UpdateGoal(ctx, g); err != nil {
		t.Fatalf("UpdateGoal: %v", err)
	}
	goals, _ := repo.FindGoalsByOwner(ctx, 1)
	if len(goals) != 1 || goals[0].Deadline.String() != "2025-12-31" {
		t.Fatalf("unexpected goals: %+v", goals)
	}

	food, err := repo.CreateCategory(ctx, "Food")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := repo.CreateCategory(ctx, "Food"); !errors.Is(err, core.ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}
	if _, err := repo.CreateCategory(ctx, "Bills"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	cats, _ := repo.ListCategories(ctx)
	if len(cats) != 2 || cats[0].Name != "Bills" {
		t.Fatalf("unexpected categories: %+v", cats)
	}
	byName, err := repo.FindCategoryByName(ctx, "Food")
	if err != nil || byName.ID != food.ID {
		t.Fatalf("FindCategoryByName = %+v, %v", byName, err)
	}
	if _, err := repo.UpdateCategory(ctx, core.Category{ID: food.ID, Name: "Bills"}); !errors.Is(err, core.ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory on rename, got %v", err)
	}
}

func TestSQLiteRepository_Quota(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if n, err := repo.Consumed(ctx, 9); err != nil || n != 0 {
		t.Fatalf("Consumed for new owner = %d, %v", n, err)
	}

	for want := 1; want <= 3; want++ {
		n, err := repo.Increment(ctx, 9, 3)
		if err != nil || n != want {
			t.Fatalf("Increment #%d = %d, %v", want, n, err)
		}
	}

	if _, err := repo.Increment(ctx, 9, 3); !errors.Is(err, ports.ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if n, _ := repo.Consumed(ctx, 9); n != 3 {
		t.Fatalf("counter moved past limit: %d", n)
	}
	if n, _ := repo.Consumed(ctx, 10); n != 0 {
		t.Fatalf("counters are per owner, got %d", n)
	}
}
