package analytics

import (
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Stats summarizes income and spending over a set of transactions.
type Stats struct {
	Income           decimal.Decimal `json:"income"`
	ExpenseNecessity decimal.Decimal `json:"expenseNecessity"`
	ExpenseExtra     decimal.Decimal `json:"expenseExtra"`
	Withdrawals      decimal.Decimal `json:"withdrawals"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	Net              decimal.Decimal `json:"net"`
}

// ComputeStats buckets amounts by kind. Transfers and unknown kinds are
// movements, not gains or losses, and land in no bucket.
func ComputeStats(txns []core.Transaction) Stats {
	s := Stats{
		Income:           decimal.Zero,
		ExpenseNecessity: decimal.Zero,
		ExpenseExtra:     decimal.Zero,
		Withdrawals:      decimal.Zero,
	}
	for _, tx := range txns {
		switch tx.TxKind() {
		case core.KindIncome:
			s.Income = s.Income.Add(tx.TxAmount())
		case core.KindExpenseNecessity:
			s.ExpenseNecessity = s.ExpenseNecessity.Add(tx.TxAmount())
		case core.KindExpenseExtra:
			s.ExpenseExtra = s.ExpenseExtra.Add(tx.TxAmount())
		case core.KindWithdrawal:
			s.Withdrawals = s.Withdrawals.Add(tx.TxAmount())
		}
	}
	s.TotalExpenses = s.ExpenseNecessity.Add(s.ExpenseExtra).Add(s.Withdrawals)
	s.Net = s.Income.Sub(s.TotalExpenses)
	return s
}

// SavingsRate is net as a percentage of income, or zero without income.
func SavingsRate(s Stats) decimal.Decimal {
	if !s.Income.IsPositive() {
		return decimal.Zero
	}
	return s.Net.Div(s.Income).Mul(hundred).Round(2)
}
