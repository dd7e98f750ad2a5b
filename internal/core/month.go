package core

import (
	"fmt"
	"strings"
	"time"
)

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

var shortMonthNames = [...]string{"gen", "feb", "mar", "apr", "mag", "giu", "lug", "ago", "set", "ott", "nov", "dic"}

// NewMonth normalizes out-of-range months, so NewMonth(2024, 0) is December 2023.
func NewMonth(year int, month time.Month) Month {
	return MonthOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// AddMonths moves n calendar months, rolling over year boundaries.
func (m Month) AddMonths(n int) Month {
	return NewMonth(m.Year, m.Month+time.Month(n))
}

// Before reports whether m is an earlier month than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Span counts the months from m to end inclusive; it is <= 0 when end is before m.
func (m Month) Span(end Month) int {
	return (end.Year-m.Year)*12 + int(end.Month-m.Month) + 1
}

// Label is the short Italian label used on chart axes, e.g. "giu 24".
func (m Month) Label() string {
	return fmt.Sprintf("%s %02d", shortMonthNames[m.Month-1], m.Year%100)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// ParseMonth parses "YYYY-MM" (a trailing "-DD" is tolerated).
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return Month{}, fmt.Errorf("parse month %q: %w", s, ErrInvalidDate)
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01"}

// ParseDate reads a transaction date. The calendar components are taken as
// written, without timezone conversion. It never panics; ok is false for
// anything it does not understand.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthOfDate returns the calendar month of a transaction date string.
func MonthOfDate(s string) (Month, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return Month{}, false
	}
	return MonthOf(t), true
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
