package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TxType is the closed set of transaction kinds.
type TxType uint8

const (
	Income TxType = iota + 1
	Expense
)

type (
	Transaction struct {
		ID          int64           `json:"id"`
		OwnerID     int64           `json:"-"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Type        TxType          `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		// Version starts at 1 and is bumped by every update.
		Version int64 `json:"-"`
	}

	// Budget caps spending for one category in one calendar month.
	// Month is always the first day of the month.
	Budget struct {
		ID       int64
		OwnerID  int64
		Category string
		Month    Date
		Amount   decimal.Decimal
	}

	// BudgetView is a budget joined with its derived spend.
	BudgetView struct {
		ID           int64           `json:"id"`
		Category     string          `json:"category"`
		BudgetAmount decimal.Decimal `json:"budgetAmount"`
		SpentAmount  decimal.Decimal `json:"spentAmount"`
		Month        Date            `json:"month"`
	}

	Goal struct {
		ID            int64           `json:"id"`
		OwnerID       int64           `json:"-"`
		Title         string          `json:"title"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		Deadline      Date            `json:"deadline"`
		Category      string          `json:"category"`
	}

	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
)

var (
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyTitle        = errors.New("empty title")
	ErrDescriptionLength = errors.New("description too long (max 200 characters)")
	ErrDuplicateBudget   = errors.New("budget already exists for this category and month")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrNotFound          = errors.New("not found")
	ErrInvalidPeriod     = errors.New("invalid period")
)

// ParseTxType matches "income" or "expense" case-insensitively.
func ParseTxType(s string) (TxType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (t TxType) String() string {
	switch t {
	case Income:
		return "income"
	case Expense:
		return "expense"
	}
	return "unknown"
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (t TxType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrInvalidType
	}
	return []byte(t.String()), nil
}

func (t *TxType) UnmarshalText(b []byte) error {
	parsed, err := ParseTxType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// SignedAmount returns amount with the sign dictated by t:
// income is non-negative, expense is non-positive.
func SignedAmount(t TxType, amount decimal.Decimal) decimal.Decimal {
	if t == Expense {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

// Normalize returns tx with its amount sign matching its type.
func Normalize(tx Transaction) (Transaction, error) {
	if !tx.Type.Valid() {
		return tx, ErrInvalidType
	}
	tx.Amount = SignedAmount(tx.Type, tx.Amount)
	return tx, nil
}

func (tx Transaction) Validate() error {
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if len(tx.Description) > 200 {
		return ErrDescriptionLength
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Month.Validate(); err != nil {
		return err
	}
	if b.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if g.TargetAmount.IsNegative() || g.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
