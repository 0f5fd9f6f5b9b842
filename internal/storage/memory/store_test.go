package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
	"pennywise/internal/ports"
)

func TestStoreTransactionsOrderedAndScoped(t *testing.T) {
	s := New()
	ctx := context.Background()

	add := func(owner int64, d core.Date, desc string) core.Transaction {
		tx, err := s.CreateTransaction(ctx, core.Transaction{
			OwnerID: owner, Date: d, Description: desc, Category: "Food", Type: core.Expense, Amount: decimal.NewFromInt(-1),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return tx
	}
	first := add(1, core.NewDate(2024, 7, 1), "Coffee beans")
	second := add(1, core.NewDate(2024, 7, 1), "Bakery")
	add(1, core.NewDate(2024, 6, 1), "old")
	add(2, core.NewDate(2024, 7, 2), "coffee elsewhere")

	all, _ := s.FindByOwner(ctx, 1)
	if len(all) != 3 || all[0].ID != second.ID || all[1].ID != first.ID {
		t.Fatalf("expected date desc then id desc, got %+v", all)
	}

	hits, _ := s.SearchByOwnerAndDescription(ctx, 1, "COFFEE")
	if len(hits) != 1 || hits[0].ID != first.ID {
		t.Fatalf("unexpected search result: %+v", hits)
	}

	if _, err := s.UpdateTransaction(ctx, core.Transaction{ID: first.ID, OwnerID: 2}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update across owners should fail, got %v", err)
	}
}

func TestStoreBudgetUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()
	july := core.NewDate(2024, 7, 10)

	b, err := s.CreateBudget(ctx, core.Budget{OwnerID: 1, Category: "Food", Month: july})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateBudget(ctx, core.Budget{OwnerID: 1, Category: "Food", Month: core.NewDate(2024, 7, 1)}); !errors.Is(err, core.ErrDuplicateBudget) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	other, _ := s.CreateBudget(ctx, core.Budget{OwnerID: 1, Category: "Rent", Month: july})

	other.Category = "Food"
	if _, err := s.UpdateBudget(ctx, other); !errors.Is(err, core.ErrDuplicateBudget) {
		t.Fatalf("expected duplicate on update, got %v", err)
	}
	// Updating a budget onto its own slot is allowed
	if _, err := s.UpdateBudget(ctx, b); err != nil {
		t.Fatalf("self update: %v", err)
	}
}

func TestStoreIncrementIsBounded(t *testing.T) {
	s := New()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Increment(ctx, 1, 3); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			} else if !errors.Is(err, ports.ErrQuotaExhausted) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if granted != 3 {
		t.Fatalf("expected exactly 3 increments, got %d", granted)
	}
	if n, _ := s.Consumed(ctx, 1); n != 3 {
		t.Fatalf("consumed = %d", n)
	}
}
