package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
)

// MonthlyTrend walks count months backwards from anchor (inclusive) and
// returns them oldest first.
func MonthlyTrend(txs []core.Transaction, anchor core.Date, count int) []core.MonthlyTrend {
	if count <= 0 {
		return []core.MonthlyTrend{}
	}
	trend := make([]core.MonthlyTrend, count)
	for i := 0; i < count; i++ {
		month := anchor.AddMonths(-i)
		window := Between(txs, month, month.MonthEnd())
		trend[count-1-i] = core.MonthlyTrend{
			Month:    strings.ToUpper(month.Format("Jan")),
			Year:     month.Year(),
			Income:   SumByType(window, core.Income),
			Expenses: SumByType(window, core.Expense),
		}
	}
	return trend
}

// MonthOverMonthNetWorth compares net worth at the end of asOf's month with
// net worth at the end of the previous month.
func MonthOverMonthNetWorth(txs []core.Transaction, asOf core.Date) decimal.Decimal {
	current := NetWorth(txs, asOf.MonthEnd())
	prevEnd := asOf.AddMonths(-1).MonthEnd()
	previous := decimal.Zero
	// Always true for a real calendar; kept so a future-dated previous month counts as zero.
	if !asOf.Before(prevEnd.Time) {
		previous = NetWorth(txs, prevEnd)
	}
	return PercentageChange(current, previous)
}

// Summarize computes every dashboard metric for the month containing asOf.
// GenerationsLeft is left at zero; it is not derived from transactions.
func Summarize(txs []core.Transaction, asOf core.Date) core.DashboardSummary {
	month := asOf.MonthStart()
	current := Between(txs, month, month.MonthEnd())
	income := SumByType(current, core.Income)
	expenses := SumByType(current, core.Expense)
	rate := SavingsRate(income, expenses)

	prevMonth := month.AddMonths(-1)
	previous := Between(txs, prevMonth, prevMonth.MonthEnd())
	prevIncome := SumByType(previous, core.Income)
	prevExpenses := SumByType(previous, core.Expense)
	prevRate := SavingsRate(prevIncome, prevExpenses)

	return core.DashboardSummary{
		TotalIncome:                     income,
		TotalExpenses:                   expenses,
		NetWorth:                        NetWorth(txs, asOf),
		SavingsRate:                     rate,
		NetWorthChangePercentage:        MonthOverMonthNetWorth(txs, asOf),
		MonthlyIncomeChangePercentage:   PercentageChange(income, prevIncome),
		MonthlyExpensesChangePercentage: PercentageChange(expenses, prevExpenses),
		SavingsRateChangePercentage:     PercentageChange(rate, prevRate),
	}
}

// Overview summarizes a single calendar month, labelled like "July 2024".
func Overview(txs []core.Transaction, month core.Date) core.MonthlyOverview {
	month = month.MonthStart()
	window := Between(txs, month, month.MonthEnd())
	income := SumByType(window, core.Income)
	expenses := SumByType(window, core.Expense)
	return core.MonthlyOverview{
		MonthYear:     month.Format("January 2006"),
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetIncome:     income.Sub(expenses),
		SavingsRate:   SavingsRate(income, expenses),
	}
}
