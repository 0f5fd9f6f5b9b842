// Package sheets defines the spreadsheet export port and its adapters.
package sheets

import (
	"context"

	"pennywise/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter appends one transaction as a spreadsheet row.
	TransactionExporter interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// HeaderWriter is implemented by exporters whose target needs a header row.
	HeaderWriter interface {
		EnsureHeader(ctx context.Context) error
	}
)

// Header lists the exported columns in order.
var Header = []string{"ID", "Version", "Date", "Type", "Category", "Description", "Amount"}

// Row renders tx in Header order.
func Row(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.Version,
		tx.Date.String(),
		tx.Type.String(),
		tx.Category,
		tx.Description,
		tx.Amount.StringFixed(2),
	}
}
