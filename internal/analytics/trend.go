package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// MonthSnapshot is one point of a monthly trend.
type MonthSnapshot struct {
	Label        string             `json:"label"`
	Month        core.Month         `json:"-"`
	Income       decimal.Decimal    `json:"income"`
	Expenses     decimal.Decimal    `json:"expenses"`
	Net          decimal.Decimal    `json:"net"`
	Transactions []core.Transaction `json:"-"`
}

// Change is the net difference of a month against the previous one.
type Change struct {
	Label   string          `json:"label"`
	Month   core.Month      `json:"-"`
	Diff    decimal.Decimal `json:"diff"`
	Percent decimal.Decimal `json:"percent"`
}

// Averages holds per-month means over a trend.
type Averages struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// LastMonths returns exactly n snapshots, oldest first, ending with the
// reference month. Negative n yields none.
func LastMonths(n int, refMonth time.Month, refYear int, txns []core.Transaction) []MonthSnapshot {
	if n < 0 {
		n = 0
	}
	ref := core.NewMonth(refYear, refMonth)
	out := make([]MonthSnapshot, 0, n)
	for i := n - 1; i >= 0; i-- {
		m := ref.AddMonths(-i)
		monthTxns := FilterByMonth(txns, m.Month, m.Year)
		s := ComputeStats(monthTxns)
		out = append(out, MonthSnapshot{
			Label:        m.Label(),
			Month:        m,
			Income:       s.Income,
			Expenses:     s.TotalExpenses,
			Net:          s.Net,
			Transactions: monthTxns,
		})
	}
	return out
}

// AverageOf averages income, expenses and net. An empty trend averages to zero.
func AverageOf(snapshots []MonthSnapshot) Averages {
	avg := Averages{Income: decimal.Zero, Expenses: decimal.Zero, Net: decimal.Zero}
	if len(snapshots) == 0 {
		return avg
	}
	for _, s := range snapshots {
		avg.Income = avg.Income.Add(s.Income)
		avg.Expenses = avg.Expenses.Add(s.Expenses)
		avg.Net = avg.Net.Add(s.Net)
	}
	n := decimal.NewFromInt(int64(len(snapshots)))
	avg.Income = avg.Income.Div(n).Round(2)
	avg.Expenses = avg.Expenses.Div(n).Round(2)
	avg.Net = avg.Net.Div(n).Round(2)
	return avg
}

// MonthOverMonth compares each snapshot's net with the one before it, so the
// result has one element fewer than the input. A zero previous net gives a
// zero percentage.
func MonthOverMonth(snapshots []MonthSnapshot) []Change {
	if len(snapshots) < 2 {
		return nil
	}
	out := make([]Change, 0, len(snapshots)-1)
	for i := 1; i < len(snapshots); i++ {
		prev, cur := snapshots[i-1], snapshots[i]
		diff := cur.Net.Sub(prev.Net)
		pct := decimal.Zero
		if !prev.Net.IsZero() {
			pct = diff.Div(prev.Net.Abs()).Mul(hundred).Round(2)
		}
		out = append(out, Change{Label: cur.Label, Month: cur.Month, Diff: diff, Percent: pct})
	}
	return out
}
