package core

import (
	"errors"
	"strings"
)

type (
	ChartType  string
	PeriodKind string
	DataType   string
)

const (
	ChartLine     ChartType = "line"
	ChartBar      ChartType = "bar"
	ChartPie      ChartType = "pie"
	ChartDoughnut ChartType = "doughnut"
)

const (
	PeriodLast3       PeriodKind = "last3"
	PeriodLast6       PeriodKind = "last6"
	PeriodLast12      PeriodKind = "last12"
	PeriodCurrentYear PeriodKind = "currentYear"
	PeriodCustom      PeriodKind = "custom"
)

const (
	DataOverview       DataType = "overview"
	DataCategories     DataType = "categories"
	DataAccounts       DataType = "accounts"
	DataCategoryDetail DataType = "categoryDetail"
)

// Series visibility used when a chart does not set the flag explicitly.
const (
	DefaultShowIncome    = true
	DefaultShowExpenses  = true
	DefaultShowNecessity = false
	DefaultShowExtra     = false
	DefaultShowNet       = true
)

var (
	ErrEmptyChartTitle = errors.New("empty chart title")
	ErrInvalidChart    = errors.New("invalid chart configuration")
)

// ChartOptions tunes what a chart shows. Nil flags fall back to the Default*
// constants. SelectedAccounts nil means every account; an empty, non-nil
// slice selects none.
type ChartOptions struct {
	ShowIncome       *bool   `json:"showIncome,omitempty"`
	ShowExpenses     *bool   `json:"showExpenses,omitempty"`
	ShowNecessity    *bool   `json:"showNecessity,omitempty"`
	ShowExtra        *bool   `json:"showExtra,omitempty"`
	ShowNet          *bool   `json:"showNet,omitempty"`
	SelectedAccounts []int64 `json:"selectedAccounts"`
	Category         string  `json:"category,omitempty"`
	StartDate        string  `json:"startDate,omitempty"`
	EndDate          string  `json:"endDate,omitempty"`
}

// ChartConfig is a user-defined chart.
type ChartConfig struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Type     ChartType    `json:"type"`
	Period   PeriodKind   `json:"period"`
	DataType DataType     `json:"dataType"`
	Options  ChartOptions `json:"options"`
}

// Bool returns a pointer to v, for building ChartOptions literals.
func Bool(v bool) *bool { return &v }

func flag(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func (o ChartOptions) IncomeShown() bool    { return flag(o.ShowIncome, DefaultShowIncome) }
func (o ChartOptions) ExpensesShown() bool  { return flag(o.ShowExpenses, DefaultShowExpenses) }
func (o ChartOptions) NecessityShown() bool { return flag(o.ShowNecessity, DefaultShowNecessity) }
func (o ChartOptions) ExtraShown() bool     { return flag(o.ShowExtra, DefaultShowExtra) }
func (o ChartOptions) NetShown() bool       { return flag(o.ShowNet, DefaultShowNet) }

func (t ChartType) IsValid() bool {
	switch t {
	case ChartLine, ChartBar, ChartPie, ChartDoughnut:
		return true
	}
	return false
}

func (p PeriodKind) IsValid() bool {
	switch p {
	case PeriodLast3, PeriodLast6, PeriodLast12, PeriodCurrentYear, PeriodCustom:
		return true
	}
	return false
}

func (d DataType) IsValid() bool {
	switch d {
	case DataOverview, DataCategories, DataAccounts, DataCategoryDetail:
		return true
	}
	return false
}

// Validate checks a chart before it is saved. Rendering never calls it and
// falls back to defaults instead.
func (c ChartConfig) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyChartTitle
	}
	if !c.Type.IsValid() || !c.Period.IsValid() || !c.DataType.IsValid() {
		return ErrInvalidChart
	}
	for _, bound := range []string{c.Options.StartDate, c.Options.EndDate} {
		if bound == "" {
			continue
		}
		if _, err := ParseMonth(bound); err != nil {
			return err
		}
	}
	return nil
}
