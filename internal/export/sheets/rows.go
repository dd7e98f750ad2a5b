package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/analytics"
	"bilancio/internal/core"
)

// Base sheet names; the year is prefixed when writing.
const (
	SummarySheet    = "Riepilogo"
	CategoriesSheet = "Categorie"
	AccountsSheet   = "Conti"
)

// SummaryRows has a header, one row per month of year and a totals row.
func SummaryRows(txns []core.Transaction, year int) [][]any {
	rows := [][]any{{"Mese", "Entrate", "Necessità", "Extra", "Prelievi", "Uscite totali", "Netto"}}
	yearly := make([]core.Transaction, 0)
	for m := time.January; m <= time.December; m++ {
		monthly := analytics.FilterByMonth(txns, m, year)
		yearly = append(yearly, monthly...)
		rows = append(rows, statsRow(core.NewMonth(year, m).Label(), analytics.ComputeStats(monthly)))
	}
	return append(rows, statsRow("Totale", analytics.ComputeStats(yearly)))
}

func statsRow(label string, s analytics.Stats) []any {
	return []any{
		label,
		cell(s.Income),
		cell(s.ExpenseNecessity),
		cell(s.ExpenseExtra),
		cell(s.Withdrawals),
		cell(s.TotalExpenses),
		cell(s.Net),
	}
}

// CategoryRows ranks every category of the year by spending.
func CategoryRows(txns []core.Transaction, year int) [][]any {
	yearly := analytics.FilterByRange(txns, core.NewMonth(year, time.January), core.NewMonth(year, time.December))
	ranked := analytics.RankCategories(analytics.OrderedCategoryTotals(yearly), 0)

	rows := make([][]any, 0, len(ranked)+1)
	rows = append(rows, []any{"Categoria", "Importo"})
	for _, ca := range ranked {
		rows = append(rows, []any{ca.Category, cell(ca.Amount)})
	}
	return rows
}

// AccountRows lists every account with its current balance.
func AccountRows(accounts []core.Account, txns []core.Transaction) [][]any {
	rows := make([][]any, 0, len(accounts)+2)
	rows = append(rows, []any{"Conto", "Tipo", "Saldo iniziale", "Saldo"})
	for _, ab := range analytics.AccountBalances(accounts, txns) {
		rows = append(rows, []any{ab.Account.Name, ab.Account.Type.Label(), cell(ab.Account.InitialBalance), cell(ab.Balance)})
	}
	return append(rows, []any{"Totale", "", "", cell(analytics.TotalBalance(accounts, txns))})
}

// cell sends amounts as numbers so the sheet can format and sum them.
func cell(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// sheetName returns "<year> <base>" unless base already starts with a 4-digit year.
func sheetName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
