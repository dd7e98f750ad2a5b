package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"bilancio/internal/amqp"
	"bilancio/internal/analytics"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/state"
)

const (
	// AnalysisMonths is the length of the trend shown by Analysis.
	AnalysisMonths = 6
	// CategoryLimit caps the category ranking of Dashboard and Analysis.
	CategoryLimit = 10

	defaultChartCacheSize = 100
	defaultChartCacheTTL  = 5 * time.Minute
)

// Publisher announces committed state changes to other processes.
type Publisher interface {
	PublishStateChanged(ctx context.Context, msg *amqp.StateChangedMessage) error
}

// Dashboard is the summary of one month.
type Dashboard struct {
	Month        time.Month                 `json:"month"`
	Year         int                        `json:"year"`
	Label        string                     `json:"label"`
	Stats        analytics.Stats            `json:"stats"`
	TotalBalance decimal.Decimal            `json:"totalBalance"`
	Accounts     []analytics.AccountBalance `json:"accounts"`
	Categories   []analytics.CategoryAmount `json:"categories"`
}

// Analysis compares a month with the months before it.
type Analysis struct {
	Month       time.Month                 `json:"month"`
	Year        int                        `json:"year"`
	Stats       analytics.Stats            `json:"stats"`
	Trend       []analytics.MonthSnapshot  `json:"trend"`
	Averages    analytics.Averages         `json:"averages"`
	SavingsRate decimal.Decimal            `json:"savingsRate"`
	Changes     []analytics.Change         `json:"changes"`
	Categories  []analytics.CategoryAmount `json:"categories"`
}

// TrendReport is a monthly trend, oldest month first.
type TrendReport struct {
	Months   []analytics.MonthSnapshot `json:"months"`
	Averages analytics.Averages        `json:"averages"`
	Changes  []analytics.Change        `json:"changes"`
}

// FinanceService exposes the read models over a state.Store and forwards
// mutations to it. Chart series are cached per store revision.
type FinanceService struct {
	store     *state.Store
	charts    *cache.LRUCache[analytics.ChartData]
	group     singleflight.Group
	publisher Publisher
	now       func() time.Time
	logger    *log.Logger
}

type Option func(*FinanceService)

func WithClock(now func() time.Time) Option {
	return func(s *FinanceService) { s.now = now }
}

// WithChartCache replaces the default chart-series cache.
func WithChartCache(c *cache.LRUCache[analytics.ChartData]) Option {
	return func(s *FinanceService) { s.charts = c }
}

// WithPublisher makes the service announce every committed change.
func WithPublisher(p Publisher) Option {
	return func(s *FinanceService) { s.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *FinanceService) { s.logger = l }
}

func NewFinanceService(store *state.Store, opts ...Option) *FinanceService {
	s := &FinanceService{
		store:  store,
		now:    time.Now,
		logger: log.New(log.DefaultConfig()),
	}
	for _, o := range opts {
		o(s)
	}
	if s.charts == nil {
		s.charts = cache.NewLRUCache[analytics.ChartData](defaultChartCacheSize, defaultChartCacheTTL)
	}
	s.logger = s.logger.WithComponent(log.ComponentFinance)
	store.OnChange(s.publishChange)
	return s
}

// ChartCache exposes the chart cache so it can be registered for cleanup.
func (s *FinanceService) ChartCache() *cache.LRUCache[analytics.ChartData] {
	return s.charts
}

// Now returns the service clock's current time.
func (s *FinanceService) Now() time.Time {
	return s.now()
}

func (s *FinanceService) Snapshot() state.Snapshot {
	return s.store.Snapshot()
}

func (s *FinanceService) Revision() uint64 {
	return s.store.Revision()
}

// Ping checks that the backend is reachable.
func (s *FinanceService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *FinanceService) Accounts() []core.Account {
	return s.store.Snapshot().Accounts
}

func (s *FinanceService) Categories() core.Taxonomy {
	return s.store.Snapshot().Categories
}

func (s *FinanceService) Charts() []core.ChartConfig {
	return s.store.Snapshot().Charts
}

// Transactions returns the transactions of the given month, newest first.
// A month outside 1..12 returns every transaction.
func (s *FinanceService) Transactions(month time.Month, year int) []core.Transaction {
	txns := s.store.Snapshot().Transactions
	if month >= time.January && month <= time.December {
		return analytics.SortByDate(analytics.FilterByMonth(txns, month, year))
	}
	return analytics.SortByDate(txns)
}

func (s *FinanceService) Dashboard(month time.Month, year int) Dashboard {
	snap := s.store.Snapshot()
	monthly := analytics.FilterByMonth(snap.Transactions, month, year)
	return Dashboard{
		Month:        month,
		Year:         year,
		Label:        core.NewMonth(year, month).Label(),
		Stats:        analytics.ComputeStats(monthly),
		TotalBalance: analytics.TotalBalance(snap.Accounts, snap.Transactions),
		Accounts:     analytics.AccountBalances(snap.Accounts, snap.Transactions),
		Categories:   analytics.RankCategories(analytics.OrderedCategoryTotals(monthly), CategoryLimit),
	}
}

func (s *FinanceService) Analysis(month time.Month, year int) Analysis {
	snap := s.store.Snapshot()
	monthly := analytics.FilterByMonth(snap.Transactions, month, year)
	stats := analytics.ComputeStats(monthly)
	trend := analytics.LastMonths(AnalysisMonths, month, year, snap.Transactions)
	return Analysis{
		Month:       month,
		Year:        year,
		Stats:       stats,
		Trend:       trend,
		Averages:    analytics.AverageOf(trend),
		SavingsRate: analytics.SavingsRate(stats),
		Changes:     analytics.MonthOverMonth(trend),
		Categories:  analytics.RankCategories(analytics.OrderedCategoryTotals(monthly), CategoryLimit),
	}
}

// Trend returns n monthly snapshots ending with the given month.
func (s *FinanceService) Trend(n int, month time.Month, year int) []analytics.MonthSnapshot {
	return analytics.LastMonths(n, month, year, s.store.Snapshot().Transactions)
}

// TrendReport is Trend with its averages and month-over-month changes.
func (s *FinanceService) TrendReport(n int, month time.Month, year int) TrendReport {
	trend := s.Trend(n, month, year)
	return TrendReport{
		Months:   trend,
		Averages: analytics.AverageOf(trend),
		Changes:  analytics.MonthOverMonth(trend),
	}
}

// ChartSeries computes the series of a saved chart. Results are cached by
// chart, store revision and current month; concurrent misses share one
// computation.
func (s *FinanceService) ChartSeries(ctx context.Context, id int64) (analytics.ChartData, error) {
	now := s.now()
	key := fmt.Sprintf("%d:%d:%s", id, s.store.Revision(), core.MonthOf(now))
	if data, ok := s.charts.Get(key); ok {
		return data, nil
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		cfg, err := s.store.Chart(id)
		if err != nil {
			return nil, err
		}
		snap := s.store.Snapshot()
		data := analytics.ChartSeries(cfg, snap.Transactions, snap.Accounts, now)
		s.charts.Set(key, data)
		return data, nil
	})
	if err != nil {
		return analytics.ChartData{}, err
	}
	s.logger.DebugContext(ctx, "Chart series computed", log.FieldChartID, id, "shared", shared)
	return v.(analytics.ChartData), nil
}

// PreviewChart computes the series of an unsaved configuration.
func (s *FinanceService) PreviewChart(cfg core.ChartConfig) (analytics.ChartData, error) {
	if err := cfg.Validate(); err != nil {
		return analytics.ChartData{}, err
	}
	snap := s.store.Snapshot()
	return analytics.ChartSeries(cfg, snap.Transactions, snap.Accounts, s.now()), nil
}

func (s *FinanceService) AddAccount(ctx context.Context, a core.Account) (core.Account, error) {
	return s.store.AddAccount(ctx, a)
}

// DeleteAccount removes the account together with its transactions.
func (s *FinanceService) DeleteAccount(ctx context.Context, id int64) (int, error) {
	removed, err := s.store.DeleteAccount(ctx, id)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Account deleted",
		log.FieldAccountID, id, "transactions_removed", removed)
	return removed, nil
}

func (s *FinanceService) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	stored, err := s.store.AddTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Transaction created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithTransaction(stored.TxID(), string(stored.TxKind()), stored.TxAmount()).
			WithRevision(s.store.Revision()).
			ToSlice()...)
	return stored, nil
}

func (s *FinanceService) ImportTransactions(ctx context.Context, txns []core.Transaction) (int, error) {
	return s.store.ImportTransactions(ctx, txns)
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, id int64) error {
	return s.store.DeleteTransaction(ctx, id)
}

func (s *FinanceService) UpdateCategories(ctx context.Context, t core.Taxonomy) error {
	return s.store.UpdateCategories(ctx, t)
}

func (s *FinanceService) ResetCategories(ctx context.Context) error {
	return s.store.ResetCategories(ctx)
}

func (s *FinanceService) AddCategory(ctx context.Context, kind core.Kind, group, label string) error {
	return s.store.AddCategory(ctx, kind, group, label)
}

func (s *FinanceService) RemoveCategory(ctx context.Context, kind core.Kind, group, label string) error {
	return s.store.RemoveCategory(ctx, kind, group, label)
}

func (s *FinanceService) AddCategoryGroup(ctx context.Context, kind core.Kind, group string) error {
	return s.store.AddCategoryGroup(ctx, kind, group)
}

func (s *FinanceService) RemoveCategoryGroup(ctx context.Context, kind core.Kind, group string) error {
	return s.store.RemoveCategoryGroup(ctx, kind, group)
}

func (s *FinanceService) Chart(id int64) (core.ChartConfig, error) {
	return s.store.Chart(id)
}

func (s *FinanceService) SaveChart(ctx context.Context, cfg core.ChartConfig) (core.ChartConfig, error) {
	return s.store.SaveChart(ctx, cfg)
}

func (s *FinanceService) DeleteChart(ctx context.Context, id int64) error {
	return s.store.DeleteChart(ctx, id)
}

// Restore replaces every collection with a backup.
func (s *FinanceService) Restore(ctx context.Context, snap state.Snapshot) error {
	if err := s.store.Restore(ctx, snap); err != nil {
		return err
	}
	s.charts.Purge()
	return nil
}

// publishChange runs as a store hook. Failing to publish never fails the
// mutation: the data is already saved.
func (s *FinanceService) publishChange(ctx context.Context, c state.Change) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewStateChangedMessage(c.Collections, c.Operation, c.Revision)
	if err := s.publisher.PublishStateChanged(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish state change",
			log.FieldError, err,
			log.FieldOperation, c.Operation,
			log.FieldRevision, c.Revision)
	}
}
