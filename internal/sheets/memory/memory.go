// Package memory is an in-process spreadsheet for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"pennywise/internal/core"
	ports "pennywise/internal/sheets"
)

type Sheet struct {
	mu   sync.Mutex
	rows [][]any
}

var _ ports.TransactionExporter = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Sheet) Append(_ context.Context, tx core.Transaction) (string, error) {
	if tx.ID <= 0 {
		return "", fmt.Errorf("validation failed: transaction has no id")
	}
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, ports.Row(tx))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of every appended row.
func (s *Sheet) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.rows...)
}
