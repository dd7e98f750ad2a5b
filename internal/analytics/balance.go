// Package analytics holds the pure projections behind every view: balances,
// monthly statistics, category totals, trends and chart series. Functions here
// never mutate their inputs, never log and never fail.
package analytics

import (
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// AccountBalance pairs an account with its current balance.
type AccountBalance struct {
	Account core.Account    `json:"account"`
	Balance decimal.Decimal `json:"balance"`
}

// Balance returns the account's initial balance plus the signed effect of
// every transaction. Unknown ids start from zero.
func Balance(accountID int64, accounts []core.Account, txns []core.Transaction) decimal.Decimal {
	start := decimal.Zero
	if acc, ok := core.FindAccount(accounts, accountID); ok {
		start = acc.InitialBalance
	}
	return start.Add(Flow(accountID, txns))
}

// Flow is the net movement on an account within txns, starting from zero.
func Flow(accountID int64, txns []core.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txns {
		switch t := tx.(type) {
		case core.Transfer:
			// from == to applies both sides and nets to zero
			if t.FromAccount == accountID {
				sum = sum.Sub(t.Amount)
			}
			if t.ToAccount == accountID {
				sum = sum.Add(t.Amount)
			}
		case core.Entry:
			if t.Account != accountID {
				continue
			}
			if t.Kind == core.KindIncome {
				sum = sum.Add(t.Amount)
			} else {
				sum = sum.Sub(t.Amount)
			}
		}
	}
	return sum
}

// TotalBalance is the net worth across all accounts.
func TotalBalance(accounts []core.Account, txns []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, acc := range accounts {
		total = total.Add(Balance(acc.ID, accounts, txns))
	}
	return total
}

// AccountBalances lists every account with its balance, in account order.
func AccountBalances(accounts []core.Account, txns []core.Transaction) []AccountBalance {
	out := make([]AccountBalance, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, AccountBalance{Account: acc, Balance: Balance(acc.ID, accounts, txns)})
	}
	return out
}
