package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pennywise/internal/amqp"
	"pennywise/internal/storage"
	boltstore "pennywise/internal/storage/bolt"
	"pennywise/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result  *BackendResult
		closers []func() error
	)

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		closers = append(closers, repo.Close)
		result = &BackendResult{Stores: Stores{
			Transactions: repo,
			Exports:      repo,
			Budgets:      repo,
			Goals:        repo,
			Categories:   repo,
			Quota:        repo,
			Ping:         repo.Ping,
		}}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store := memory.New()
		result = &BackendResult{Stores: Stores{
			Transactions: store,
			Exports:      store,
			Budgets:      store,
			Goals:        store,
			Categories:   store,
			Quota:        store,
			Ping:         store.Ping,
		}}
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if config.QuotaType == BoltQuota {
		quota, err := boltstore.Open(config.BoltDBPath)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("failed to open bolt quota store: %w", err)
		}
		closers = append(closers, quota.Close)
		result.Stores.Quota = quota
		f.logger.Info("Initialized bolt quota store", "db_path", config.BoltDBPath)
	}

	// Initialize AMQP client (optional)
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without export", "error", err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.AMQP = client
			closers = append(closers, client.Close)
		}
	}

	result.Cleanup = func() error { return closeAll(closers) }
	return result, nil
}

// closeAll releases resources in reverse order of acquisition.
func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
