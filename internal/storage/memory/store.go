// Package memory is a process-local implementation of every store port.
// It backs DATA_BACKEND=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/ports"
)

type txRecord struct {
	tx              core.Transaction
	exported        bool
	exportedVersion int64
	failed          bool
	createdAt       time.Time
}

type Store struct {
	mu sync.Mutex

	nextID     int64
	txs        map[int64]*txRecord
	budgets    map[int64]core.Budget
	goals      map[int64]core.Goal
	categories map[int64]core.Category
	usage      map[int64]int
}

var (
	_ ports.TransactionStore = (*Store)(nil)
	_ ports.ExportQueue      = (*Store)(nil)
	_ ports.BudgetStore      = (*Store)(nil)
	_ ports.GoalStore        = (*Store)(nil)
	_ ports.CategoryStore    = (*Store)(nil)
	_ ports.QuotaStore       = (*Store)(nil)
)

func New() *Store {
	return &Store{
		txs:        map[int64]*txRecord{},
		budgets:    map[int64]core.Budget{},
		goals:      map[int64]core.Goal{},
		categories: map[int64]core.Category{},
		usage:      map[int64]int{},
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Transactions

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.id()
	tx.Version = 1
	s.txs[tx.ID] = &txRecord{tx: tx, createdAt: time.Now()}
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.txs[tx.ID]
	if !ok || rec.tx.OwnerID != tx.OwnerID {
		return tx, core.ErrNotFound
	}
	tx.Version = rec.tx.Version + 1
	rec.tx = tx
	rec.exported, rec.failed = false, false
	return tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.txs[id]
	if !ok || rec.tx.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) FindTransaction(_ context.Context, ownerID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.txs[id]
	if !ok || rec.tx.OwnerID != ownerID {
		return core.Transaction{}, core.ErrNotFound
	}
	return rec.tx, nil
}

func (s *Store) filterTxs(ownerID int64, keep func(core.Transaction) bool) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, rec := range s.txs {
		if rec.tx.OwnerID == ownerID && keep(rec.tx) {
			out = append(out, rec.tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) FindByOwner(_ context.Context, ownerID int64) ([]core.Transaction, error) {
	return s.filterTxs(ownerID, func(core.Transaction) bool { return true }), nil
}

func (s *Store) FindByOwnerAndDateRange(_ context.Context, ownerID int64, start, end core.Date) ([]core.Transaction, error) {
	return s.filterTxs(ownerID, func(tx core.Transaction) bool {
		return tx.Date.Within(start, end)
	}), nil
}

func (s *Store) FindByOwnerAndTypeAndDateRange(_ context.Context, ownerID int64, t core.TxType, start, end core.Date) ([]core.Transaction, error) {
	return s.filterTxs(ownerID, func(tx core.Transaction) bool {
		return tx.Type == t && tx.Date.Within(start, end)
	}), nil
}

func (s *Store) FindByOwnerAndCategoryAndTypeAndDateRange(_ context.Context, ownerID int64, category string, t core.TxType, start, end core.Date) ([]core.Transaction, error) {
	return s.filterTxs(ownerID, func(tx core.Transaction) bool {
		return tx.Category == category && tx.Type == t && tx.Date.Within(start, end)
	}), nil
}

func (s *Store) FindByOwnerAndType(_ context.Context, ownerID int64, t core.TxType) ([]core.Transaction, error) {
	return s.filterTxs(ownerID, func(tx core.Transaction) bool { return tx.Type == t }), nil
}

func (s *Store) FindByOwnerAndCategory(_ context.Context, ownerID int64, category string) ([]core.Transaction, error) {
	return s.filterTxs(ownerID, func(tx core.Transaction) bool { return tx.Category == category }), nil
}

func (s *Store) SearchByOwnerAndDescription(_ context.Context, ownerID int64, keyword string) ([]core.Transaction, error) {
	kw := strings.ToLower(keyword)
	return s.filterTxs(ownerID, func(tx core.Transaction) bool {
		return strings.Contains(strings.ToLower(tx.Description), kw)
	}), nil
}

// Export queue

func (s *Store) PendingExports(_ context.Context, limit int) ([]ports.PendingExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.PendingExport
	for id, rec := range s.txs {
		if !rec.exported {
			out = append(out, ports.PendingExport{ID: id, Version: rec.tx.Version, CreatedAt: rec.createdAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetTransactionByID(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return rec.tx, nil
}

func (s *Store) ExportedVersion(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.txs[id]
	if !ok {
		return 0, core.ErrNotFound
	}
	return rec.exportedVersion, nil
}

func (s *Store) MarkExported(_ context.Context, id, version int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.txs[id]
	if !ok || rec.tx.Version != version {
		return false, nil
	}
	rec.exported, rec.failed = true, false
	rec.exportedVersion = version
	return true, nil
}

func (s *Store) MarkExportError(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.txs[id]; ok {
		rec.failed = true
	}
	return nil
}

// Budgets

func (s *Store) budgetConflict(b core.Budget) bool {
	month := b.Month.MonthStart()
	for id, other := range s.budgets {
		if id != b.ID && other.OwnerID == b.OwnerID && other.Category == b.Category && other.Month.Equal(month.Time) {
			return true
		}
	}
	return false
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = 0
	if s.budgetConflict(b) {
		return b, core.ErrDuplicateBudget
	}
	b.ID = s.id()
	b.Month = b.Month.MonthStart()
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.budgets[b.ID]
	if !ok || old.OwnerID != b.OwnerID {
		return b, core.ErrNotFound
	}
	if s.budgetConflict(b) {
		return b, core.ErrDuplicateBudget
	}
	b.Month = b.Month.MonthStart()
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) FindBudget(_ context.Context, ownerID, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.OwnerID != ownerID {
		return core.Budget{}, core.ErrNotFound
	}
	return b, nil
}

func (s *Store) filterBudgets(keep func(core.Budget) bool) []core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Month.Equal(out[j].Month.Time) {
			return out[i].Month.After(out[j].Month.Time)
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) FindBudgetsByOwner(_ context.Context, ownerID int64) ([]core.Budget, error) {
	return s.filterBudgets(func(b core.Budget) bool { return b.OwnerID == ownerID }), nil
}

func (s *Store) FindBudgetsByOwnerAndMonth(_ context.Context, ownerID int64, month core.Date) ([]core.Budget, error) {
	m := month.MonthStart()
	return s.filterBudgets(func(b core.Budget) bool {
		return b.OwnerID == ownerID && b.Month.Equal(m.Time)
	}), nil
}

func (s *Store) FindBudgetByOwnerAndCategoryAndMonth(_ context.Context, ownerID int64, category string, month core.Date) (core.Budget, error) {
	m := month.MonthStart()
	found := s.filterBudgets(func(b core.Budget) bool {
		return b.OwnerID == ownerID && b.Category == category && b.Month.Equal(m.Time)
	})
	if len(found) == 0 {
		return core.Budget{}, core.ErrNotFound
	}
	return found[0], nil
}

// Goals

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.id()
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.goals[g.ID]
	if !ok || old.OwnerID != g.OwnerID {
		return g, core.ErrNotFound
	}
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) DeleteGoal(_ context.Context, ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) FindGoal(_ context.Context, ownerID, id int64) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.OwnerID != ownerID {
		return core.Goal{}, core.ErrNotFound
	}
	return g, nil
}

func (s *Store) FindGoalsByOwner(_ context.Context, ownerID int64) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.OwnerID == ownerID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Categories

func (s *Store) nameTaken(name string, except int64) bool {
	for id, c := range s.categories {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) CreateCategory(_ context.Context, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(name, 0) {
		return core.Category{}, core.ErrDuplicateCategory
	}
	c := core.Category{ID: s.id(), Name: name}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return c, core.ErrNotFound
	}
	if s.nameTaken(c.Name, c.ID) {
		return c, core.ErrDuplicateCategory
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) FindCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (s *Store) FindCategoryByName(_ context.Context, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Advisory quota

func (s *Store) Consumed(_ context.Context, ownerID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage[ownerID], nil
}

func (s *Store) Increment(_ context.Context, ownerID int64, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usage[ownerID] >= limit {
		return s.usage[ownerID], ports.ErrQuotaExhausted
	}
	s.usage[ownerID]++
	return s.usage[ownerID], nil
}
