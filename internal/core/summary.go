package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an expense amount aggregated by category name.
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// DashboardSummary is recomputed on every request; nothing here is persisted.
type DashboardSummary struct {
	TotalIncome                     decimal.Decimal `json:"totalIncome"`
	TotalExpenses                   decimal.Decimal `json:"totalExpenses"`
	NetWorth                        decimal.Decimal `json:"netWorth"`
	SavingsRate                     decimal.Decimal `json:"savingsRate"`
	NetWorthChangePercentage        decimal.Decimal `json:"netWorthChangePercentage"`
	MonthlyIncomeChangePercentage   decimal.Decimal `json:"monthlyIncomeChangePercentage"`
	MonthlyExpensesChangePercentage decimal.Decimal `json:"monthlyExpensesChangePercentage"`
	SavingsRateChangePercentage     decimal.Decimal `json:"savingsRateChangePercentage"`
	GenerationsLeft                 int             `json:"generationsLeft"`
}

// MonthlyTrend holds one month of a spending trend series.
type MonthlyTrend struct {
	Month    string          `json:"month"` // upper-case three-letter label
	Year     int             `json:"year"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// MonthlyOverview is a compact summary for one calendar month.
type MonthlyOverview struct {
	MonthYear     string          `json:"monthYear"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetIncome     decimal.Decimal `json:"netIncome"`
	SavingsRate   decimal.Decimal `json:"savingsRate"`
}
