package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"bilancio/internal/analytics"
	"bilancio/internal/core"
	"bilancio/internal/services"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

func writeBalances(w io.Writer, balances []analytics.AccountBalance, total decimal.Decimal) {
	tw := newTable(w)
	fmt.Fprintln(tw, "Conto\tTipo\tSaldo\t")
	for _, b := range balances {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", b.Account.Name, b.Account.Type.Label(), core.FormatEuros(b.Balance))
	}
	fmt.Fprintf(tw, "Totale\t\t%s\t\n", core.FormatEuros(total))
	tw.Flush()
}

func writeAnalysis(w io.Writer, a services.Analysis) {
	fmt.Fprintf(w, "%s\n\n", core.NewMonth(a.Year, a.Month).Label())

	tw := newTable(w)
	rows := []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Entrate", a.Stats.Income},
		{"Spese Necessità", a.Stats.ExpenseNecessity},
		{"Spese Extra", a.Stats.ExpenseExtra},
		{"Prelievi", a.Stats.Withdrawals},
		{"Uscite", a.Stats.TotalExpenses},
		{"Netto", a.Stats.Net},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", r.label, core.FormatEuros(r.amount))
	}
	fmt.Fprintf(tw, "Risparmio\t%s%%\t\n", a.SavingsRate.StringFixed(2))
	tw.Flush()

	if len(a.Categories) == 0 {
		return
	}
	fmt.Fprintln(w, "\nCategorie")
	tw = newTable(w)
	for _, c := range a.Categories {
		fmt.Fprintf(tw, "%s\t%s\t\n", c.Category, core.FormatEuros(c.Amount))
	}
	tw.Flush()
}

func writeTrend(w io.Writer, r services.TrendReport) {
	tw := newTable(w)
	fmt.Fprintln(tw, "Mese\tEntrate\tUscite\tNetto\t")
	for _, m := range r.Months {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", m.Label,
			core.FormatEuros(m.Income), core.FormatEuros(m.Expenses), core.FormatEuros(m.Net))
	}
	fmt.Fprintf(tw, "Media\t%s\t%s\t%s\t\n",
		core.FormatEuros(r.Averages.Income), core.FormatEuros(r.Averages.Expenses), core.FormatEuros(r.Averages.Net))
	tw.Flush()
}

// writeChart prints one row per label and one column per dataset.
func writeChart(w io.Writer, data analytics.ChartData) {
	tw := newTable(w)
	header := make([]string, 0, len(data.Datasets)+1)
	header = append(header, "")
	for _, ds := range data.Datasets {
		header = append(header, ds.Label)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for i, label := range data.Labels {
		cells := make([]string, 0, len(data.Datasets)+1)
		cells = append(cells, label)
		for _, ds := range data.Datasets {
			cells = append(cells, ds.Data[i].StringFixed(2))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	tw.Flush()
}
