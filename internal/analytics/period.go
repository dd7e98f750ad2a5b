package analytics

import (
	"time"

	"bilancio/internal/core"
)

const defaultPeriodMonths = 6

// Bucket is one calendar month of a resolved period.
type Bucket struct {
	Label        string
	Month        core.Month
	Transactions []core.Transaction
}

// ResolvePeriod expands a period selector into consecutive monthly buckets,
// oldest first. Trailing periods end at the month of now. Every month gets a
// bucket even when it has no transactions.
//
// A custom period with a missing or unparseable bound falls back to the
// trailing six months; reversed bounds are swapped.
func ResolvePeriod(period core.PeriodKind, opts core.ChartOptions, txns []core.Transaction, now time.Time) []Bucket {
	current := core.MonthOf(now)
	start, count := current.AddMonths(-(defaultPeriodMonths - 1)), defaultPeriodMonths

	switch period {
	case core.PeriodLast3:
		start, count = current.AddMonths(-2), 3
	case core.PeriodLast6:
		// default
	case core.PeriodLast12:
		start, count = current.AddMonths(-11), 12
	case core.PeriodCurrentYear:
		start, count = core.NewMonth(now.Year(), time.January), 12
	case core.PeriodCustom:
		from, errFrom := core.ParseMonth(opts.StartDate)
		to, errTo := core.ParseMonth(opts.EndDate)
		if errFrom == nil && errTo == nil {
			if to.Before(from) {
				from, to = to, from
			}
			start, count = from, from.Span(to)
		}
	}

	out := make([]Bucket, 0, count)
	for i := 0; i < count; i++ {
		m := start.AddMonths(i)
		out = append(out, Bucket{
			Label:        m.Label(),
			Month:        m,
			Transactions: FilterByMonth(txns, m.Month, m.Year),
		})
	}
	return out
}
