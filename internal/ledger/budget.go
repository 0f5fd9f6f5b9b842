package ledger

import (
	"github.com/shopspring/decimal"

	"pennywise/internal/core"
)

// Spent sums the magnitude of expenses in category within budget's month.
func Spent(b core.Budget, txs []core.Transaction) decimal.Decimal {
	start := b.Month.MonthStart()
	end := start.MonthEnd()
	spent := decimal.Zero
	for _, tx := range txs {
		if tx.Type != core.Expense || tx.Category != b.Category || !tx.Date.Within(start, end) {
			continue
		}
		spent = spent.Add(tx.Amount.Abs())
	}
	return spent
}

// Valuate joins a budget with its derived spend.
func Valuate(b core.Budget, txs []core.Transaction) core.BudgetView {
	return core.BudgetView{
		ID:           b.ID,
		Category:     b.Category,
		BudgetAmount: b.Amount,
		SpentAmount:  Spent(b, txs),
		Month:        b.Month.MonthStart(),
	}
}
