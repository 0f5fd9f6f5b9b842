package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
)

func TestSheetAppend(t *testing.T) {
	s := New()
	tx := core.Transaction{
		ID:       3,
		Version:  1,
		Date:     core.NewDate(2024, 7, 1),
		Category: "Salary",
		Type:     core.Income,
		Amount:   decimal.NewFromInt(2000),
	}

	ref, err := s.Append(context.Background(), tx)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	rows := s.Rows()
	if len(rows) != 1 || rows[0][0] != int64(3) || rows[0][6] != "2000.00" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	tx.ID = 0
	if _, err := s.Append(context.Background(), tx); err == nil {
		t.Fatal("expected error for transaction without id")
	}
}
