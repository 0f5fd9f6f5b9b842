// Package ledger turns a set of signed transactions into sums, rates and
// period-over-period deltas.
//
// Every function is pure: it re-scans the slice it is given and keeps no state
// between calls. Callers are expected to pass one owner's transactions; the
// functions themselves apply the date windows.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
)

// divPrecision is the number of decimal places kept by every rate division.
const divPrecision = 4

var hundred = decimal.NewFromInt(100)

// SumByType sums the amounts of transactions of type t.
// Expense sums are returned as a positive magnitude.
func SumByType(txs []core.Transaction, t core.TxType) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.Type == t {
			sum = sum.Add(tx.Amount)
		}
	}
	if t == core.Expense {
		return sum.Abs()
	}
	return sum
}

// Between returns the transactions dated within [start, end].
func Between(txs []core.Transaction, start, end core.Date) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date.Within(start, end) {
			out = append(out, tx)
		}
	}
	return out
}

// NetWorth is lifetime income minus lifetime expenses from the epoch floor
// through asOf inclusive.
func NetWorth(txs []core.Transaction, asOf core.Date) decimal.Decimal {
	window := Between(txs, core.EpochFloor, asOf)
	return SumByType(window, core.Income).Sub(SumByType(window, core.Expense))
}

// SavingsRate returns (income - expenses) / income * 100, or 0 when there is no income.
func SavingsRate(income, expenses decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return income.Sub(expenses).DivRound(income, divPrecision).Mul(hundred)
}

// PercentageChange returns (current - previous) / |previous| * 100.
// A zero previous value yields 0, +100 or -100 following the sign of current.
func PercentageChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		switch current.Sign() {
		case 1:
			return hundred
		case -1:
			return hundred.Neg()
		default:
			return decimal.Zero
		}
	}
	return current.Sub(previous).DivRound(previous.Abs(), divPrecision).Mul(hundred)
}

// CategoryBreakdown groups expenses by category as positive magnitudes.
func CategoryBreakdown(txs []core.Transaction) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
	}
	for k, v := range sums {
		sums[k] = v.Abs()
	}
	return sums
}

// SortedBreakdown orders a breakdown by amount, largest first, then by name.
func SortedBreakdown(m map[string]decimal.Decimal) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(m))
	for k, v := range m {
		out = append(out, core.CategoryAmount{Category: k, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}
