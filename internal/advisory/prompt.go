package advisory

import (
	"fmt"
	"strings"

	"pennywise/internal/core"
)

// BuildPrompt renders the advisor prompt for a dashboard summary. Money is
// formatted in currency with two decimals, percentages with one.
func BuildPrompt(s core.DashboardSummary, currency string) string {
	var b strings.Builder
	b.WriteString("You are a financial advisor. Analyze the following specific financial data for a user and provide three distinct, actionable financial advice bullet points. ")
	b.WriteString("Each piece of advice MUST directly relate to and reference the provided figures where appropriate. Aim for concrete suggestions.\n\n")

	b.WriteString("User's Financial Data (Current Month):\n")
	fmt.Fprintf(&b, "- Monthly Income: %s\n", core.FormatMoney(s.TotalIncome, currency))
	fmt.Fprintf(&b, "- Monthly Expenses: %s\n", core.FormatMoney(s.TotalExpenses, currency))
	fmt.Fprintf(&b, "- Net Monthly Cash Flow: %s\n", core.FormatMoney(s.TotalIncome.Sub(s.TotalExpenses), currency))
	fmt.Fprintf(&b, "- Savings Rate: %s\n", core.Percent(s.SavingsRate))
	fmt.Fprintf(&b, "- Lifetime Net Worth: %s\n", core.FormatMoney(s.NetWorth, currency))
	fmt.Fprintf(&b, "- Net Worth Month-over-Month Change: %s\n", core.Percent(s.NetWorthChangePercentage))

	b.WriteString("\nBased *specifically* on these numbers, provide your three bullet points of advice below. ")
	b.WriteString("For example, if income is $5000 and expenses are $4500 (leaving $500 net cash flow), and savings rate is 10%, ")
	b.WriteString("you might suggest ways to increase that $500 or reduce specific (if known) expenses. ")
	b.WriteString("If Net Worth MoM change is negative, address potential reasons or concerns.\n")
	b.WriteString("Requested Advice (exactly three bullet points directly referencing the data above):\n")
	b.WriteString("- [Advice point 1 related to the user's specific data]\n")
	b.WriteString("- [Advice point 2 related to the user's specific data]\n")
	b.WriteString("- [Advice point 3 related to the user's specific data]\n")
	b.WriteString("\nBe encouraging. Do not ask questions. Focus on data-driven advice.")
	return b.String()
}
