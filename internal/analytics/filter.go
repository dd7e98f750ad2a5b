package analytics

import (
	"cmp"
	"slices"
	"time"

	"bilancio/internal/core"
)

// FilterByMonth keeps the transactions dated in the given calendar month.
// Transactions with unparseable dates never match.
func FilterByMonth(txns []core.Transaction, month time.Month, year int) []core.Transaction {
	want := core.Month{Year: year, Month: month}
	var out []core.Transaction
	for _, tx := range txns {
		if m, ok := core.MonthOfDate(tx.TxDate()); ok && m == want {
			out = append(out, tx)
		}
	}
	return out
}

// FilterByRange keeps transactions dated between from and to, both inclusive.
func FilterByRange(txns []core.Transaction, from, to core.Month) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txns {
		m, ok := core.MonthOfDate(tx.TxDate())
		if !ok || m.Before(from) || to.Before(m) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// SortByDate returns a copy ordered newest first. Equal dates keep their
// input order and undated transactions sink to the end.
func SortByDate(txns []core.Transaction) []core.Transaction {
	type keyed struct {
		tx   core.Transaction
		at   time.Time
		okay bool
	}
	ks := make([]keyed, len(txns))
	for i, tx := range txns {
		at, ok := core.ParseDate(tx.TxDate())
		ks[i] = keyed{tx: tx, at: at, okay: ok}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		if a.okay != b.okay {
			if a.okay {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.at.UnixNano(), a.at.UnixNano())
	})
	out := make([]core.Transaction, len(ks))
	for i, k := range ks {
		out[i] = k.tx
	}
	return out
}
