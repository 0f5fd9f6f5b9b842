// Package services holds the owner-scoped use cases behind the HTTP API.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pennywise/internal/core"
	"pennywise/internal/ports"
)

// ExportPublisher queues a transaction for export to the spreadsheet.
type ExportPublisher interface {
	PublishTransactionExport(ctx context.Context, id, version int64) error
}

// TransactionFilter selects transactions for List. Only the first matching
// criterion is applied, in this order: date range (both ends set), category,
// type, description keyword.
type TransactionFilter struct {
	Start    core.Date
	End      core.Date
	Category string
	Type     core.TxType
	Keyword  string
}

// TransactionService saves transactions locally and then publishes an export
// message. A failed publish never fails the request; the worker's periodic
// sweep picks the transaction up later.
type TransactionService struct {
	store     ports.TransactionStore
	publisher ExportPublisher
}

// NewTransactionService accepts a nil publisher when AMQP is not configured.
func NewTransactionService(store ports.TransactionStore, publisher ExportPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

func (s *TransactionService) Create(ctx context.Context, ownerID int64, tx core.Transaction) (core.Transaction, error) {
	tx.ID = 0
	tx.OwnerID = ownerID
	tx, err := prepare(tx)
	if err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, saved)
	return saved, nil
}

func (s *TransactionService) Update(ctx context.Context, ownerID, id int64, tx core.Transaction) (core.Transaction, error) {
	tx.ID = id
	tx.OwnerID = ownerID
	tx, err := prepare(tx)
	if err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.UpdateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}

	s.publish(ctx, saved)
	return saved, nil
}

// Delete removes the transaction. Rows already copied to the spreadsheet
// stay there.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "owner_id", ownerID, "transaction_id", id)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	tx, err := s.store.FindTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

func (s *TransactionService) List(ctx context.Context, ownerID int64, f TransactionFilter) ([]core.Transaction, error) {
	var (
		txs []core.Transaction
		err error
	)
	switch {
	case !f.Start.IsZero() && !f.End.IsZero():
		if f.Start.After(f.End.Time) {
			return nil, fmt.Errorf("%w: start %s is after end %s", core.ErrInvalidDate, f.Start, f.End)
		}
		txs, err = s.store.FindByOwnerAndDateRange(ctx, ownerID, f.Start, f.End)
	case strings.TrimSpace(f.Category) != "":
		txs, err = s.store.FindByOwnerAndCategory(ctx, ownerID, strings.TrimSpace(f.Category))
	case f.Type.Valid():
		txs, err = s.store.FindByOwnerAndType(ctx, ownerID, f.Type)
	case strings.TrimSpace(f.Keyword) != "":
		txs, err = s.store.SearchByOwnerAndDescription(ctx, ownerID, strings.TrimSpace(f.Keyword))
	default:
		txs, err = s.store.FindByOwner(ctx, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

func prepare(tx core.Transaction) (core.Transaction, error) {
	tx.Category = strings.TrimSpace(tx.Category)
	tx.Description = strings.TrimSpace(tx.Description)
	if err := tx.Validate(); err != nil {
		return tx, err
	}
	return core.Normalize(tx)
}

func (s *TransactionService) publish(ctx context.Context, tx core.Transaction) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping export message",
			"transaction_id", tx.ID)
		return
	}
	if err := s.publisher.PublishTransactionExport(ctx, tx.ID, tx.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"transaction_id", tx.ID,
			"version", tx.Version,
			"error", err)
	}
}
