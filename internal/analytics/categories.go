package analytics

import (
	"slices"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// CategoryAmount is one category with its aggregated spending.
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// CategoryTotals sums expense-like amounts by category. Categories that no
// transaction mentions are absent.
func CategoryTotals(txns []core.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, ca := range OrderedCategoryTotals(txns) {
		out[ca.Category] = ca.Amount
	}
	return out
}

// OrderedCategoryTotals is CategoryTotals in first-seen order.
func OrderedCategoryTotals(txns []core.Transaction) []CategoryAmount {
	var out []CategoryAmount
	index := make(map[string]int)
	for _, tx := range txns {
		e, ok := tx.(core.Entry)
		if !ok || !e.Kind.IsExpenseLike() {
			continue
		}
		if i, seen := index[e.Category]; seen {
			out[i].Amount = out[i].Amount.Add(e.Amount)
			continue
		}
		index[e.Category] = len(out)
		out = append(out, CategoryAmount{Category: e.Category, Amount: e.Amount})
	}
	return out
}

// RankCategories sorts by descending amount, ties keeping input order, and
// keeps at most limit entries. A limit <= 0 keeps all of them.
func RankCategories(totals []CategoryAmount, limit int) []CategoryAmount {
	out := slices.Clone(totals)
	slices.SortStableFunc(out, func(a, b CategoryAmount) int {
		return b.Amount.Cmp(a.Amount)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
