// Package ports declares the storage contracts the services depend on.
package ports

import (
	"context"
	"errors"
	"time"

	"pennywise/internal/core"
)

// ErrQuotaExhausted is returned by QuotaStore.Increment when the owner has
// already consumed the full allowance.
var ErrQuotaExhausted = errors.New("advisory quota exhausted")

// Ports for outbound adapters.
type (
	// TransactionStore persists owner-scoped transactions. Results are ordered
	// by date descending, then id descending. Date ranges are inclusive.
	// Create returns version 1; Update returns the bumped version.
	TransactionStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, ownerID, id int64) error
		FindTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error)

		FindByOwner(ctx context.Context, ownerID int64) ([]core.Transaction, error)
		FindByOwnerAndDateRange(ctx context.Context, ownerID int64, start, end core.Date) ([]core.Transaction, error)
		FindByOwnerAndTypeAndDateRange(ctx context.Context, ownerID int64, t core.TxType, start, end core.Date) ([]core.Transaction, error)
		FindByOwnerAndCategoryAndTypeAndDateRange(ctx context.Context, ownerID int64, category string, t core.TxType, start, end core.Date) ([]core.Transaction, error)
		FindByOwnerAndType(ctx context.Context, ownerID int64, t core.TxType) ([]core.Transaction, error)
		FindByOwnerAndCategory(ctx context.Context, ownerID int64, category string) ([]core.Transaction, error)
		SearchByOwnerAndDescription(ctx context.Context, ownerID int64, keyword string) ([]core.Transaction, error)
	}

	// ExportQueue tracks which transactions still have to be copied to the
	// external spreadsheet.
	ExportQueue interface {
		PendingExports(ctx context.Context, limit int) ([]PendingExport, error)
		GetTransactionByID(ctx context.Context, id int64) (core.Transaction, error)
		// ExportedVersion is the last version copied to the spreadsheet, 0 if none.
		ExportedVersion(ctx context.Context, id int64) (int64, error)
		// MarkExported records version as exported only while it is still the
		// current version; it reports whether the row was marked.
		MarkExported(ctx context.Context, id, version int64) (bool, error)
		MarkExportError(ctx context.Context, id int64) error
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, ownerID, id int64) error
		FindBudget(ctx context.Context, ownerID, id int64) (core.Budget, error)
		FindBudgetsByOwner(ctx context.Context, ownerID int64) ([]core.Budget, error)
		FindBudgetsByOwnerAndMonth(ctx context.Context, ownerID int64, month core.Date) ([]core.Budget, error)
		// FindBudgetByOwnerAndCategoryAndMonth returns core.ErrNotFound when absent.
		FindBudgetByOwnerAndCategoryAndMonth(ctx context.Context, ownerID int64, category string, month core.Date) (core.Budget, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		DeleteGoal(ctx context.Context, ownerID, id int64) error
		FindGoal(ctx context.Context, ownerID, id int64) (core.Goal, error)
		FindGoalsByOwner(ctx context.Context, ownerID int64) ([]core.Goal, error)
	}

	// CategoryStore holds the shared category catalogue. Names are unique.
	CategoryStore interface {
		CreateCategory(ctx context.Context, name string) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, id int64) error
		FindCategory(ctx context.Context, id int64) (core.Category, error)
		FindCategoryByName(ctx context.Context, name string) (core.Category, error)
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	// QuotaStore counts advisory generations per owner.
	QuotaStore interface {
		Consumed(ctx context.Context, ownerID int64) (int, error)
		// Increment adds one to the owner's counter only while it is below
		// limit and returns the new value. At the limit it returns
		// ErrQuotaExhausted and leaves the counter unchanged.
		Increment(ctx context.Context, ownerID int64, limit int) (int, error)
	}
)

// PendingExport is the minimal data needed to queue an export message.
type PendingExport struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}
