package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// maxChartCategories caps the slices of a categories chart.
const maxChartCategories = 10

// ChartData is what a chart renders: one label per point and aligned series.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is a single named series. Data always has one value per label.
type Dataset struct {
	Label            string            `json:"label"`
	Data             []decimal.Decimal `json:"data"`
	BorderColor      string            `json:"borderColor,omitempty"`
	BackgroundColor  string            `json:"backgroundColor,omitempty"`
	BackgroundColors []string          `json:"backgroundColors,omitempty"`
	Tension          float64           `json:"tension,omitempty"`
}

type seriesColor struct {
	hex  string
	rgba string
}

var (
	colorIncome    = seriesColor{"#10b981", "rgba(16, 185, 129, 0.2)"}
	colorExpenses  = seriesColor{"#ef4444", "rgba(239, 68, 68, 0.2)"}
	colorNecessity = seriesColor{"#f59e0b", "rgba(245, 158, 11, 0.2)"}
	colorExtra     = seriesColor{"#8b5cf6", "rgba(139, 92, 246, 0.2)"}
	colorNet       = seriesColor{"#3b82f6", "rgba(59, 130, 246, 0.2)"}
	colorDetail    = seriesColor{"#667eea", "rgba(102, 126, 234, 0.2)"}

	categoryPalette = []string{
		"#667eea", "#764ba2", "#f093fb", "#4facfe",
		"#43e97b", "#fa709a", "#fee140", "#30cfd0",
		"#a8edea", "#fed6e3",
	}
	accountPalette = []string{"#667eea", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6", "#ec4899"}
)

const lineTension = 0.4

func (c seriesColor) background(t core.ChartType) string {
	if t == core.ChartBar {
		return c.hex
	}
	return c.rgba
}

// ChartSeries computes the data of a saved chart against the current
// collections. It never fails: unknown data types render as overview and
// options left unset follow their defaults.
func ChartSeries(cfg core.ChartConfig, txns []core.Transaction, accounts []core.Account, now time.Time) ChartData {
	buckets := ResolvePeriod(cfg.Period, cfg.Options, txns, now)
	switch cfg.DataType {
	case core.DataCategories:
		return categoriesChart(buckets)
	case core.DataAccounts:
		return accountsChart(cfg, buckets, accounts)
	case core.DataCategoryDetail:
		return categoryDetailChart(cfg, buckets)
	default:
		return overviewChart(cfg, buckets)
	}
}

func bucketLabels(buckets []Bucket) []string {
	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
	}
	return labels
}

func perBucket(buckets []Bucket, value func(Bucket) decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(buckets))
	for i, b := range buckets {
		out[i] = value(b)
	}
	return out
}

func overviewChart(cfg core.ChartConfig, buckets []Bucket) ChartData {
	stats := make([]Stats, len(buckets))
	for i, b := range buckets {
		stats[i] = ComputeStats(b.Transactions)
	}
	series := func(label string, c seriesColor, pick func(Stats) decimal.Decimal) Dataset {
		data := make([]decimal.Decimal, len(stats))
		for i, s := range stats {
			data[i] = pick(s)
		}
		return Dataset{
			Label:           label,
			Data:            data,
			BorderColor:     c.hex,
			BackgroundColor: c.background(cfg.Type),
			Tension:         lineTension,
		}
	}

	opts := cfg.Options
	datasets := []Dataset{}
	if opts.IncomeShown() {
		datasets = append(datasets, series("Entrate", colorIncome, func(s Stats) decimal.Decimal { return s.Income }))
	}
	if opts.ExpensesShown() {
		datasets = append(datasets, series("Uscite", colorExpenses, func(s Stats) decimal.Decimal { return s.TotalExpenses }))
	}
	if opts.NecessityShown() {
		datasets = append(datasets, series("Spese Necessità", colorNecessity, func(s Stats) decimal.Decimal { return s.ExpenseNecessity }))
	}
	if opts.ExtraShown() {
		datasets = append(datasets, series("Spese Extra", colorExtra, func(s Stats) decimal.Decimal { return s.ExpenseExtra }))
	}
	if opts.NetShown() {
		datasets = append(datasets, series("Netto", colorNet, func(s Stats) decimal.Decimal { return s.Net }))
	}
	return ChartData{Labels: bucketLabels(buckets), Datasets: datasets}
}

// categoriesChart aggregates the whole period; its labels are categories,
// not months.
func categoriesChart(buckets []Bucket) ChartData {
	var all []core.Transaction
	for _, b := range buckets {
		all = append(all, b.Transactions...)
	}
	ranked := RankCategories(OrderedCategoryTotals(all), maxChartCategories)

	labels := make([]string, len(ranked))
	data := make([]decimal.Decimal, len(ranked))
	for i, ca := range ranked {
		labels[i] = ca.Category
		data[i] = ca.Amount
	}
	return ChartData{
		Labels: labels,
		Datasets: []Dataset{{
			Label:            "Spesa Totale",
			Data:             data,
			BackgroundColors: append([]string(nil), categoryPalette...),
		}},
	}
}

func accountsChart(cfg core.ChartConfig, buckets []Bucket, accounts []core.Account) ChartData {
	selected := cfg.Options.SelectedAccounts
	if selected == nil {
		selected = make([]int64, len(accounts))
		for i, a := range accounts {
			selected[i] = a.ID
		}
	}

	datasets := []Dataset{}
	for i, id := range selected {
		acc, ok := core.FindAccount(accounts, id)
		if !ok {
			continue
		}
		color := accountPalette[i%len(accountPalette)]
		bg := color + "33"
		if cfg.Type == core.ChartBar {
			bg = color
		}
		datasets = append(datasets, Dataset{
			Label:           acc.Name,
			Data:            perBucket(buckets, func(b Bucket) decimal.Decimal { return Flow(id, b.Transactions) }),
			BorderColor:     color,
			BackgroundColor: bg,
			Tension:         lineTension,
		})
	}
	return ChartData{Labels: bucketLabels(buckets), Datasets: datasets}
}

func categoryDetailChart(cfg core.ChartConfig, buckets []Bucket) ChartData {
	category := cfg.Options.Category
	data := perBucket(buckets, func(b Bucket) decimal.Decimal {
		sum := decimal.Zero
		if category == "" {
			return sum
		}
		for _, tx := range b.Transactions {
			if e, ok := tx.(core.Entry); ok && e.Category == category {
				sum = sum.Add(e.Amount)
			}
		}
		return sum
	})
	return ChartData{
		Labels: bucketLabels(buckets),
		Datasets: []Dataset{{
			Label:           category,
			Data:            data,
			BorderColor:     colorDetail.hex,
			BackgroundColor: colorDetail.background(cfg.Type),
			Tension:         lineTension,
		}},
	}
}
