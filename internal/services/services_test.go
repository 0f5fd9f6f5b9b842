package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pennywise/internal/cache"
	"pennywise/internal/core"
	"pennywise/internal/storage/memory"
)

type publishCall struct {
	id, version int64
}

type fakePublisher struct {
	calls []publishCall
	err   error
}

func (f *fakePublisher) PublishTransactionExport(_ context.Context, id, version int64) error {
	f.calls = append(f.calls, publishCall{id, version})
	return f.err
}

type countingCategoryStore struct {
	*memory.Store
	lists int
}

func (c *countingCategoryStore) ListCategories(ctx context.Context) ([]core.Category, error) {
	c.lists++
	return c.Store.ListCategories(ctx)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTx(date core.Date, typ core.TxType, category, amount string) core.Transaction {
	return core.Transaction{Date: date, Type: typ, Category: category, Description: category, Amount: dec(amount)}
}

func TestTransactionService_CreateNormalizesAndPublishes(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)
	ctx := context.Background()

	tests := []struct {
		name   string
		typ    core.TxType
		amount string
		want   string
	}{
		{"expense positive input", core.Expense, "45.50", "-45.5"},
		{"expense negative input", core.Expense, "-45.50", "-45.5"},
		{"income negative input", core.Income, "-2000", "2000"},
		{"income positive input", core.Income, "2000", "2000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved, err := svc.Create(ctx, 1, newTx(core.NewDate(2024, 7, 1), tt.typ, "Food", tt.amount))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if !saved.Amount.Equal(dec(tt.want)) {
				t.Errorf("amount = %s, want %s", saved.Amount, tt.want)
			}
			if saved.OwnerID != 1 || saved.Version != 1 {
				t.Errorf("unexpected owner/version: %+v", saved)
			}
		})
	}

	if len(pub.calls) != len(tests) {
		t.Fatalf("expected %d export messages, got %d", len(tests), len(pub.calls))
	}
	if pub.calls[0].version != 1 {
		t.Errorf("first message version = %d, want 1", pub.calls[0].version)
	}
}

func TestTransactionService_Validation(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		tx   core.Transaction
		want error
	}{
		{"unknown type", core.Transaction{Date: core.NewDate(2024, 7, 1), Category: "Food", Amount: dec("1")}, core.ErrInvalidType},
		{"missing date", core.Transaction{Type: core.Expense, Category: "Food", Amount: dec("1")}, core.ErrInvalidDate},
		{"blank category", core.Transaction{Date: core.NewDate(2024, 7, 1), Type: core.Expense, Category: "  ", Amount: dec("1")}, core.ErrEmptyCategory},
		{"long description", core.Transaction{Date: core.NewDate(2024, 7, 1), Type: core.Expense, Category: "Food", Description: strings.Repeat("x", 201)}, core.ErrDescriptionLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, 1, tt.tx); !errors.Is(err, tt.want) {
				t.Fatalf("Create error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransactionService_UpdatePublishesNewVersion(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, pub)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, newTx(core.NewDate(2024, 7, 1), core.Expense, "Food", "10"))
	if err != nil {
		t.Fatalf("Create should succeed even when publishing fails: %v", err)
	}

	change := newTx(core.NewDate(2024, 7, 2), core.Income, "Refund", "-10")
	updated, err := svc.Update(ctx, 1, created.ID, change)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != 2 || !updated.Amount.Equal(dec("10")) || updated.Category != "Refund" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if last := pub.calls[len(pub.calls)-1]; last != (publishCall{created.ID, 2}) {
		t.Errorf("last publish = %+v", last)
	}

	if _, err := svc.Update(ctx, 2, created.ID, change); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("update by another owner: got %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, 2, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("delete by another owner: got %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, 1, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, 1, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}
}

func TestTransactionService_ListFilterPrecedence(t *testing.T) {
	store := memory.New()
	svc := NewTransactionService(store, nil)
	ctx := context.Background()

	seed := []core.Transaction{
		{Date: core.NewDate(2024, 6, 30), Type: core.Expense, Category: "Rent", Description: "June rent", Amount: dec("800")},
		{Date: core.NewDate(2024, 7, 1), Type: core.Income, Category: "Salary", Description: "July pay", Amount: dec("2000")},
		{Date: core.NewDate(2024, 7, 3), Type: core.Expense, Category: "Food", Description: "Groceries", Amount: dec("45")},
		{Date: core.NewDate(2024, 8, 3), Type: core.Expense, Category: "Food", Description: "Dinner out", Amount: dec("60")},
	}
	for _, tx := range seed {
		if _, err := svc.Create(ctx, 1, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if _, err := svc.Create(ctx, 2, seed[2]); err != nil {
		t.Fatalf("seed other owner: %v", err)
	}

	tests := []struct {
		name   string
		filter TransactionFilter
		want   int
	}{
		{"no filter", TransactionFilter{}, 4},
		{"date range wins over category", TransactionFilter{Start: core.NewDate(2024, 7, 1), End: core.NewDate(2024, 7, 31), Category: "Rent"}, 2},
		{"half range falls through to category", TransactionFilter{Start: core.NewDate(2024, 7, 1), Category: "Food"}, 2},
		{"category wins over type", TransactionFilter{Category: "Rent", Type: core.Income}, 1},
		{"type wins over keyword", TransactionFilter{Type: core.Expense, Keyword: "pay"}, 3},
		{"keyword", TransactionFilter{Keyword: "PAY"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, 1, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d transactions, want %d", len(got), tt.want)
			}
		})
	}

	if _, err := svc.List(ctx, 1, TransactionFilter{Start: core.NewDate(2024, 8, 1), End: core.NewDate(2024, 7, 1)}); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("inverted range: got %v, want ErrInvalidDate", err)
	}
}

func TestBudgetService(t *testing.T) {
	store := memory.New()
	txs := NewTransactionService(store, nil)
	svc := NewBudgetService(store, store)
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		newTx(core.NewDate(2024, 7, 5), core.Expense, "Food", "30"),
		newTx(core.NewDate(2024, 7, 20), core.Expense, "Food", "45"),
		newTx(core.NewDate(2024, 8, 1), core.Expense, "Food", "99"),
		newTx(core.NewDate(2024, 7, 10), core.Expense, "Rent", "800"),
		newTx(core.NewDate(2024, 7, 10), core.Income, "Food", "500"),
	} {
		if _, err := txs.Create(ctx, 1, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	view, err := svc.Create(ctx, 1, core.Budget{Category: " Food ", Month: core.NewDate(2024, 7, 19), Amount: dec("200")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !view.SpentAmount.Equal(dec("75")) || view.Month.String() != "2024-07-01" || view.Category != "Food" {
		t.Fatalf("unexpected view: %+v", view)
	}

	_, err = svc.Create(ctx, 1, core.Budget{Category: "Food", Month: core.NewDate(2024, 7, 1), Amount: dec("50")})
	if !errors.Is(err, core.ErrDuplicateBudget) {
		t.Fatalf("duplicate create: got %v, want ErrDuplicateBudget", err)
	}

	rent, err := svc.Create(ctx, 1, core.Budget{Category: "Rent", Month: core.NewDate(2024, 7, 1), Amount: dec("900")})
	if err != nil {
		t.Fatalf("Create rent: %v", err)
	}

	t.Run("update amount keeps identity", func(t *testing.T) {
		got, err := svc.Update(ctx, 1, view.ID, core.Budget{Category: "Food", Month: core.NewDate(2024, 7, 1), Amount: dec("250")})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if !got.BudgetAmount.Equal(dec("250")) || !got.SpentAmount.Equal(dec("75")) {
			t.Errorf("unexpected view: %+v", got)
		}
	})

	t.Run("update into existing slot", func(t *testing.T) {
		_, err := svc.Update(ctx, 1, rent.ID, core.Budget{Category: "Food", Month: core.NewDate(2024, 7, 1), Amount: dec("1")})
		if !errors.Is(err, core.ErrDuplicateBudget) {
			t.Errorf("got %v, want ErrDuplicateBudget", err)
		}
	})

	t.Run("move to another month", func(t *testing.T) {
		got, err := svc.Update(ctx, 1, view.ID, core.Budget{Category: "Food", Month: core.NewDate(2024, 8, 1), Amount: dec("250")})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if !got.SpentAmount.Equal(dec("99")) {
			t.Errorf("August spend = %s, want 99", got.SpentAmount)
		}
	})

	t.Run("lookups", func(t *testing.T) {
		july, err := svc.ListByMonth(ctx, 1, core.NewDate(2024, 7, 31))
		if err != nil || len(july) != 1 || july[0].Category != "Rent" {
			t.Fatalf("ListByMonth = %+v, %v", july, err)
		}
		all, err := svc.List(ctx, 1)
		if err != nil || len(all) != 2 {
			t.Fatalf("List = %d, %v", len(all), err)
		}
		got, err := svc.GetByCategoryAndMonth(ctx, 1, "Food", core.NewDate(2024, 8, 15))
		if err != nil || got.ID != view.ID {
			t.Fatalf("GetByCategoryAndMonth = %+v, %v", got, err)
		}
		if _, err := svc.Get(ctx, 2, view.ID); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("foreign Get: got %v, want ErrNotFound", err)
		}
	})

	if err := svc.Delete(ctx, 1, rent.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, 1, rent.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}
}

func TestDashboardService(t *testing.T) {
	store := memory.New()
	txs := NewTransactionService(store, nil)
	svc := NewDashboardService(store, store, 3)
	svc.now = func() time.Time { return time.Date(2024, 7, 20, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		newTx(core.NewDate(2024, 6, 1), core.Income, "Salary", "1000"),
		newTx(core.NewDate(2024, 6, 10), core.Expense, "Rent", "400"),
		newTx(core.NewDate(2024, 7, 1), core.Income, "Salary", "1200"),
		newTx(core.NewDate(2024, 7, 3), core.Expense, "Food", "100"),
		newTx(core.NewDate(2024, 7, 4), core.Expense, "Rent", "400"),
		newTx(core.NewDate(2024, 7, 18), core.Expense, "Food", "50"),
	} {
		if _, err := txs.Create(ctx, 1, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if _, err := store.Increment(ctx, 1, 3); err != nil {
		t.Fatalf("Increment: %v", err)
	}

	t.Run("summary", func(t *testing.T) {
		got, err := svc.Summary(ctx, 1, core.NewDate(2024, 7, 15))
		if err != nil {
			t.Fatalf("Summary: %v", err)
		}
		if !got.TotalIncome.Equal(dec("1200")) || !got.TotalExpenses.Equal(dec("550")) {
			t.Errorf("month totals = %s / %s", got.TotalIncome, got.TotalExpenses)
		}
		if !got.NetWorth.Equal(dec("1300")) {
			t.Errorf("net worth as of 07-15 = %s, want 1300", got.NetWorth)
		}
		if got.GenerationsLeft != 2 {
			t.Errorf("GenerationsLeft = %d, want 2", got.GenerationsLeft)
		}
	})

	t.Run("zero asOf defaults to today", func(t *testing.T) {
		got, err := svc.Summary(ctx, 1, core.Date{})
		if err != nil {
			t.Fatalf("Summary: %v", err)
		}
		if !got.NetWorth.Equal(dec("1250")) {
			t.Errorf("net worth as of today = %s, want 1250", got.NetWorth)
		}
	})

	t.Run("breakdown", func(t *testing.T) {
		got, err := svc.ExpenseBreakdown(ctx, 1, core.NewDate(2024, 7, 1), core.NewDate(2024, 7, 31))
		if err != nil {
			t.Fatalf("ExpenseBreakdown: %v", err)
		}
		if len(got) != 2 || got[0].Category != "Rent" || !got[1].Amount.Equal(dec("150")) {
			t.Errorf("unexpected breakdown: %+v", got)
		}
	})

	t.Run("trends", func(t *testing.T) {
		got, err := svc.SpendingTrends(ctx, 1, 3)
		if err != nil {
			t.Fatalf("SpendingTrends: %v", err)
		}
		labels := []string{got[0].Month, got[1].Month, got[2].Month}
		if strings.Join(labels, ",") != "MAY,JUN,JUL" {
			t.Errorf("labels = %v", labels)
		}
		if !got[1].Expenses.Equal(dec("400")) || !got[2].Income.Equal(dec("1200")) {
			t.Errorf("unexpected values: %+v", got)
		}
		if _, err := svc.SpendingTrends(ctx, 1, 0); !errors.Is(err, core.ErrInvalidPeriod) {
			t.Errorf("months=0: got %v, want ErrInvalidPeriod", err)
		}
	})

	t.Run("current month overview", func(t *testing.T) {
		got, err := svc.CurrentMonthOverview(ctx, 1)
		if err != nil {
			t.Fatalf("CurrentMonthOverview: %v", err)
		}
		if got.MonthYear != "July 2024" || !got.NetIncome.Equal(dec("650")) {
			t.Errorf("unexpected overview: %+v", got)
		}
	})
}

func TestGoalService(t *testing.T) {
	svc := NewGoalService(memory.New())
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, core.Goal{Title: " ", TargetAmount: dec("100")}); !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("blank title: got %v", err)
	}
	if _, err := svc.Create(ctx, 1, core.Goal{Title: "Bike", TargetAmount: dec("-1")}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("negative target: got %v", err)
	}

	g, err := svc.Create(ctx, 1, core.Goal{Title: "Emergency fund", TargetAmount: dec("5000"), Deadline: core.NewDate(2025, 1, 1)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	g.CurrentAmount = dec("1200")
	if _, err := svc.Update(ctx, 1, g.ID, g); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := svc.Get(ctx, 1, g.ID)
	if err != nil || !got.CurrentAmount.Equal(dec("1200")) {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if list, _ := svc.List(ctx, 2); len(list) != 0 {
		t.Errorf("goals leaked across owners: %+v", list)
	}
	if err := svc.Delete(ctx, 2, g.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("foreign delete: got %v", err)
	}
}

func TestCategoryService(t *testing.T) {
	store := &countingCategoryStore{Store: memory.New()}
	svc := NewCategoryService(store, cache.NewLRUCache[[]core.Category](1, time.Hour))
	ctx := context.Background()

	added, err := svc.Seed(ctx, []string{"Food", "Rent", "Food", ""})
	if err != nil || added != 2 {
		t.Fatalf("Seed = %d, %v", added, err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.List(ctx); err != nil {
			t.Fatalf("List: %v", err)
		}
	}
	if store.lists != 1 {
		t.Errorf("store listed %d times, want 1", store.lists)
	}

	travel, err := svc.Create(ctx, "Travel")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 3 || store.lists != 2 {
		t.Errorf("cache not invalidated on create: %d categories, %d store lists", len(list), store.lists)
	}

	if _, err := svc.Create(ctx, "Food"); !errors.Is(err, core.ErrDuplicateCategory) {
		t.Errorf("duplicate create: got %v", err)
	}
	if _, err := svc.Rename(ctx, travel.ID, "Rent"); !errors.Is(err, core.ErrDuplicateCategory) {
		t.Errorf("rename onto existing: got %v", err)
	}
	if _, err := svc.Rename(ctx, travel.ID, "Travel"); err != nil {
		t.Errorf("rename to own name: %v", err)
	}
	if err := svc.Delete(ctx, travel.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if list, _ := svc.List(ctx); len(list) != 2 {
		t.Errorf("after delete: %d categories", len(list))
	}
}

func TestLoadCategorySeed(t *testing.T) {
	names, err := LoadCategorySeed(strings.NewReader("categories:\n  - Food\n  - Housing\n"))
	if err != nil {
		t.Fatalf("LoadCategorySeed: %v", err)
	}
	if strings.Join(names, ",") != "Food,Housing" {
		t.Errorf("names = %v", names)
	}

	if names, err := LoadCategorySeed(strings.NewReader("")); err != nil || names != nil {
		t.Errorf("empty seed = %v, %v", names, err)
	}
	if _, err := LoadCategorySeed(strings.NewReader("categories: [unclosed")); err == nil {
		t.Error("expected decode error")
	}
}
