package analytics

import (
	"fmt"
	"testing"
	"time"

	"bilancio/internal/core"
)

var june2024 = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func labelsOf(buckets []Bucket) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Label
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolvePeriod(t *testing.T) {
	cases := []struct {
		name   string
		period core.PeriodKind
		opts   core.ChartOptions
		want   []string
	}{
		{"last3", core.PeriodLast3, core.ChartOptions{}, []string{"apr 24", "mag 24", "giu 24"}},
		{"last6", core.PeriodLast6, core.ChartOptions{}, []string{"gen 24", "feb 24", "mar 24", "apr 24", "mag 24", "giu 24"}},
		{"current year", core.PeriodCurrentYear, core.ChartOptions{}, []string{
			"gen 24", "feb 24", "mar 24", "apr 24", "mag 24", "giu 24",
			"lug 24", "ago 24", "set 24", "ott 24", "nov 24", "dic 24",
		}},
		{"custom", core.PeriodCustom, core.ChartOptions{StartDate: "2024-01", EndDate: "2024-03"}, []string{"gen 24", "feb 24", "mar 24"}},
		{"custom single month", core.PeriodCustom, core.ChartOptions{StartDate: "2023-11", EndDate: "2023-11"}, []string{"nov 23"}},
		{"custom across years", core.PeriodCustom, core.ChartOptions{StartDate: "2023-11", EndDate: "2024-02"}, []string{"nov 23", "dic 23", "gen 24", "feb 24"}},
		{"custom reversed", core.PeriodCustom, core.ChartOptions{StartDate: "2024-03", EndDate: "2024-01"}, []string{"gen 24", "feb 24", "mar 24"}},
		{"custom missing end", core.PeriodCustom, core.ChartOptions{StartDate: "2024-01"}, []string{"gen 24", "feb 24", "mar 24", "apr 24", "mag 24", "giu 24"}},
		{"custom garbage", core.PeriodCustom, core.ChartOptions{StartDate: "x", EndDate: "y"}, []string{"gen 24", "feb 24", "mar 24", "apr 24", "mag 24", "giu 24"}},
		{"unknown", core.PeriodKind("forever"), core.ChartOptions{}, []string{"gen 24", "feb 24", "mar 24", "apr 24", "mag 24", "giu 24"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := labelsOf(ResolvePeriod(tc.period, tc.opts, nil, june2024))
			if !equalStrings(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolvePeriodLast12SpansYears(t *testing.T) {
	got := ResolvePeriod(core.PeriodLast12, core.ChartOptions{}, nil, june2024)
	if len(got) != 12 || got[0].Label != "lug 23" || got[11].Label != "giu 24" {
		t.Fatalf("got %v", labelsOf(got))
	}
}

func TestResolvePeriodBucketsTransactions(t *testing.T) {
	txns := []core.Transaction{
		entry(1, "2024-01-10", core.KindIncome, "a", 1, "1"),
		entry(2, "2024-03-10", core.KindIncome, "a", 1, "1"),
		entry(3, "2024-03-11", core.KindIncome, "a", 1, "1"),
		entry(4, "broken", core.KindIncome, "a", 1, "1"),
	}
	got := ResolvePeriod(core.PeriodCustom, core.ChartOptions{StartDate: "2024-01", EndDate: "2024-03"}, txns, june2024)
	counts := []int{len(got[0].Transactions), len(got[1].Transactions), len(got[2].Transactions)}
	if counts[0] != 1 || counts[1] != 0 || counts[2] != 2 {
		t.Fatalf("bucket sizes %v", counts)
	}
}

func chartTxns() []core.Transaction {
	return []core.Transaction{
		entry(1, "2024-05-01", core.KindIncome, "Stipendio", 1, "1000"),
		entry(2, "2024-05-03", core.KindExpenseNecessity, "Gas", 1, "80"),
		entry(3, "2024-05-04", core.KindExpenseExtra, "Bar", 2, "12"),
		entry(4, "2024-06-01", core.KindIncome, "Stipendio", 1, "1000"),
		entry(5, "2024-06-02", core.KindExpenseExtra, "Bar", 1, "8"),
		entry(6, "2024-06-02", core.KindWithdrawal, "Prelievo", 2, "50"),
		transfer(7, "2024-06-03", 1, 2, "200"),
	}
}

func assertAligned(t *testing.T, data ChartData) {
	t.Helper()
	for _, ds := range data.Datasets {
		if len(ds.Data) != len(data.Labels) {
			t.Fatalf("dataset %q has %d points for %d labels", ds.Label, len(ds.Data), len(data.Labels))
		}
	}
}

func TestChartSeriesOverviewDefaults(t *testing.T) {
	cfg := core.ChartConfig{Type: core.ChartLine, Period: core.PeriodLast3, DataType: core.DataOverview}
	got := ChartSeries(cfg, chartTxns(), testAccounts, june2024)
	assertAligned(t, got)

	var names []string
	for _, ds := range got.Datasets {
		names = append(names, ds.Label)
	}
	if !equalStrings(names, []string{"Entrate", "Uscite", "Netto"}) {
		t.Fatalf("datasets %v", names)
	}
	assertDecimal(t, "apr income", got.Datasets[0].Data[0], "0")
	assertDecimal(t, "may expenses", got.Datasets[1].Data[1], "92")
	assertDecimal(t, "jun net", got.Datasets[2].Data[2], "942")
	if got.Datasets[0].BackgroundColor != "rgba(16, 185, 129, 0.2)" {
		t.Fatalf("line chart background %q", got.Datasets[0].BackgroundColor)
	}
}

func TestChartSeriesOverviewExplicitFlags(t *testing.T) {
	cfg := core.ChartConfig{
		Type:     core.ChartBar,
		Period:   core.PeriodLast3,
		DataType: core.DataOverview,
		Options: core.ChartOptions{
			ShowIncome:    core.Bool(false),
			ShowExpenses:  core.Bool(false),
			ShowNet:       core.Bool(false),
			ShowNecessity: core.Bool(true),
			ShowExtra:     core.Bool(true),
		},
	}
	got := ChartSeries(cfg, chartTxns(), testAccounts, june2024)
	assertAligned(t, got)
	if len(got.Datasets) != 2 || got.Datasets[0].Label != "Spese Necessità" || got.Datasets[1].Label != "Spese Extra" {
		t.Fatalf("unexpected datasets %+v", got.Datasets)
	}
	if got.Datasets[0].BackgroundColor != "#f59e0b" {
		t.Fatalf("bar chart background %q", got.Datasets[0].BackgroundColor)
	}
	assertDecimal(t, "jun extra", got.Datasets[1].Data[2], "8")
}

func TestChartSeriesUnknownDataTypeFallsBackToOverview(t *testing.T) {
	cfg := core.ChartConfig{Period: core.PeriodLast3, DataType: core.DataType("sankey")}
	got := ChartSeries(cfg, chartTxns(), testAccounts, june2024)
	if len(got.Datasets) != 3 || got.Datasets[0].Label != "Entrate" {
		t.Fatalf("unexpected fallback %+v", got.Datasets)
	}
}

func TestChartSeriesCategories(t *testing.T) {
	cfg := core.ChartConfig{Type: core.ChartPie, Period: core.PeriodLast3, DataType: core.DataCategories}
	got := ChartSeries(cfg, chartTxns(), testAccounts, june2024)
	assertAligned(t, got)
	if !equalStrings(got.Labels, []string{"Gas", "Prelievo", "Bar"}) {
		t.Fatalf("labels %v", got.Labels)
	}
	assertDecimal(t, "Bar", got.Datasets[0].Data[2], "20")
	if got.Datasets[0].Label != "Spesa Totale" || len(got.Datasets[0].BackgroundColors) != 10 {
		t.Fatalf("dataset %+v", got.Datasets[0])
	}
}

func TestChartSeriesCategoriesTopTen(t *testing.T) {
	var txns []core.Transaction
	for i := 1; i <= 12; i++ {
		txns = append(txns, entry(int64(i), "2024-06-01", core.KindExpenseExtra, fmt.Sprintf("c%02d", i), 1, fmt.Sprint(i)))
	}
	cfg := core.ChartConfig{Period: core.PeriodLast3, DataType: core.DataCategories}
	got := ChartSeries(cfg, txns, testAccounts, june2024)
	assertAligned(t, got)
	if len(got.Labels) != 10 || got.Labels[0] != "c12" || got.Labels[9] != "c03" {
		t.Fatalf("labels %v", got.Labels)
	}
}

func TestChartSeriesAccounts(t *testing.T) {
	cfg := core.ChartConfig{Type: core.ChartLine, Period: core.PeriodLast3, DataType: core.DataAccounts}
	got := ChartSeries(cfg, chartTxns(), testAccounts, june2024)
	assertAligned(t, got)
	if len(got.Datasets) != 2 || got.Datasets[0].Label != "A" || got.Datasets[1].Label != "B" {
		t.Fatalf("datasets %+v", got.Datasets)
	}
	// monthly flow, not a running balance
	assertDecimal(t, "A apr", got.Datasets[0].Data[0], "0")
	assertDecimal(t, "A may", got.Datasets[0].Data[1], "920")
	assertDecimal(t, "A jun", got.Datasets[0].Data[2], "792")
	assertDecimal(t, "B jun", got.Datasets[1].Data[2], "150")
	if got.Datasets[0].BackgroundColor != "#667eea33" {
		t.Fatalf("background %q", got.Datasets[0].BackgroundColor)
	}
}

func TestChartSeriesAccountsSelection(t *testing.T) {
	cfg := core.ChartConfig{Period: core.PeriodLast3, DataType: core.DataAccounts}

	cfg.Options.SelectedAccounts = []int64{2, 42}
	got := ChartSeries(cfg, chartTxns(), testAccounts, june2024)
	if len(got.Datasets) != 1 || got.Datasets[0].Label != "B" {
		t.Fatalf("unknown ids should be skipped: %+v", got.Datasets)
	}

	cfg.Options.SelectedAccounts = []int64{}
	got = ChartSeries(cfg, chartTxns(), testAccounts, june2024)
	if len(got.Datasets) != 0 || len(got.Labels) != 3 {
		t.Fatalf("empty selection should render no datasets: %+v", got)
	}
}

func TestChartSeriesCategoryDetail(t *testing.T) {
	cfg := core.ChartConfig{Period: core.PeriodLast3, DataType: core.DataCategoryDetail, Options: core.ChartOptions{Category: "Bar"}}
	got := ChartSeries(cfg, chartTxns(), testAccounts, june2024)
	assertAligned(t, got)
	if got.Datasets[0].Label != "Bar" {
		t.Fatalf("label %q", got.Datasets[0].Label)
	}
	assertDecimal(t, "may", got.Datasets[0].Data[1], "12")
	assertDecimal(t, "jun", got.Datasets[0].Data[2], "8")

	cfg.Options.Category = ""
	got = ChartSeries(cfg, chartTxns(), testAccounts, june2024)
	assertAligned(t, got)
	for i, v := range got.Datasets[0].Data {
		if !v.IsZero() {
			t.Fatalf("point %d = %s, want zero", i, v)
		}
	}
}

func TestChartSeriesAlignment(t *testing.T) {
	periods := []core.PeriodKind{core.PeriodLast3, core.PeriodLast6, core.PeriodLast12, core.PeriodCurrentYear, core.PeriodCustom, "bogus"}
	dataTypes := []core.DataType{core.DataOverview, core.DataCategories, core.DataAccounts, core.DataCategoryDetail, "bogus"}
	for _, p := range periods {
		for _, dt := range dataTypes {
			cfg := core.ChartConfig{Period: p, DataType: dt, Options: core.ChartOptions{
				Category:      "Bar",
				StartDate:     "2023-01",
				EndDate:       "2024-06",
				ShowNecessity: core.Bool(true),
			}}
			assertAligned(t, ChartSeries(cfg, chartTxns(), testAccounts, june2024))
		}
	}
}
