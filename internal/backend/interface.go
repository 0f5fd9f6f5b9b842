package backend

import (
	"context"

	"pennywise/internal/amqp"
	"pennywise/internal/ports"
)

// Stores bundles every storage port the services need. All fields point at
// the same underlying store except Quota, which may live in its own file.
type Stores struct {
	Transactions ports.TransactionStore
	Exports      ports.ExportQueue
	Budgets      ports.BudgetStore
	Goals        ports.GoalStore
	Categories   ports.CategoryStore
	Quota        ports.QuotaStore

	// Ping reports whether the data store is reachable.
	Ping func(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the stores, the optional queue client and a cleanup
// function releasing both.
type BackendResult struct {
	Stores Stores
	// AMQP is nil when no broker is configured or it could not be reached.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Quota counter location
	QuotaType  QuotaType
	BoltDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of data backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// QuotaType selects where advisory generation counters are kept.
type QuotaType string

const (
	// StoreQuota keeps counters next to the rest of the data.
	StoreQuota QuotaType = "store"
	// BoltQuota keeps counters in a dedicated bbolt file.
	BoltQuota QuotaType = "bolt"
)

func (qt QuotaType) String() string {
	return string(qt)
}

func (qt QuotaType) IsValid() bool {
	return qt == StoreQuota || qt == BoltQuota
}
