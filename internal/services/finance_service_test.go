package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/state"
	"bilancio/internal/storage"
	"bilancio/internal/storage/memory"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.StateChangedMessage
	err  error
}

func (p *recordingPublisher) PublishStateChanged(_ context.Context, msg *amqp.StateChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func june2024() time.Time {
	return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, opts ...Option) *FinanceService {
	t.Helper()
	store := state.New(memory.New())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	opts = append([]Option{WithClock(june2024)}, opts...)
	return NewFinanceService(store, opts...)
}

func entry(date string, kind core.Kind, category string, account int64, amount string) core.Entry {
	return core.Entry{Date: date, Kind: kind, Category: category, Account: account, Amount: decimal.RequireFromString(amount)}
}

func seedTransactions(t *testing.T, s *FinanceService) {
	t.Helper()
	ctx := context.Background()
	for _, tx := range []core.Transaction{
		entry("2024-06-01", core.KindIncome, "Stipendio", 1, "1000"),
		entry("2024-06-03", core.KindExpenseNecessity, "Affitto", 2, "200"),
		entry("2024-05-20", core.KindExpenseExtra, "Bar", 1, "50"),
	} {
		if _, err := s.AddTransaction(ctx, tx); err != nil {
			t.Fatalf("add %v: %v", tx, err)
		}
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestDashboard(t *testing.T) {
	s := newTestService(t)
	seedTransactions(t, s)

	d := s.Dashboard(time.June, 2024)

	if d.Label != "giu 24" {
		t.Errorf("label = %q", d.Label)
	}
	assertDecimal(t, "income", d.Stats.Income, "1000")
	assertDecimal(t, "total expenses", d.Stats.TotalExpenses, "200")
	assertDecimal(t, "net", d.Stats.Net, "800")
	assertDecimal(t, "total balance", d.TotalBalance, "750")
	if len(d.Accounts) != 4 {
		t.Fatalf("accounts = %d", len(d.Accounts))
	}
	assertDecimal(t, "N26 balance", d.Accounts[0].Balance, "950")
	if len(d.Categories) != 1 || d.Categories[0].Category != "Affitto" {
		t.Fatalf("categories = %+v", d.Categories)
	}
}

func TestAnalysis(t *testing.T) {
	s := newTestService(t)
	seedTransactions(t, s)

	a := s.Analysis(time.June, 2024)

	if len(a.Trend) != AnalysisMonths {
		t.Fatalf("trend has %d months", len(a.Trend))
	}
	if got := a.Trend[len(a.Trend)-1].Label; got != "giu 24" {
		t.Errorf("last trend label = %q", got)
	}
	if len(a.Changes) != AnalysisMonths-1 {
		t.Errorf("changes = %d", len(a.Changes))
	}
	assertDecimal(t, "savings rate", a.SavingsRate, "80")
	assertDecimal(t, "june change", a.Changes[len(a.Changes)-1].Diff, "850")
}

func TestTransactionsFilterAndOrder(t *testing.T) {
	s := newTestService(t)
	seedTransactions(t, s)

	june := s.Transactions(time.June, 2024)
	if len(june) != 2 || june[0].TxDate() != "2024-06-03" {
		t.Fatalf("june = %v", june)
	}
	if all := s.Transactions(0, 0); len(all) != 3 || all[2].TxDate() != "2024-05-20" {
		t.Fatalf("all = %v", all)
	}
}

func TestChartSeriesCachedPerRevision(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedTransactions(t, s)

	cfg, err := s.SaveChart(ctx, core.ChartConfig{
		Title:    "Andamento",
		Type:     core.ChartLine,
		Period:   core.PeriodLast3,
		DataType: core.DataOverview,
	})
	if err != nil {
		t.Fatalf("save chart: %v", err)
	}

	first, err := s.ChartSeries(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(first.Labels) != 3 {
		t.Fatalf("labels = %v", first.Labels)
	}
	if _, err := s.ChartSeries(ctx, cfg.ID); err != nil {
		t.Fatal(err)
	}
	if st := s.ChartCache().Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("after repeat: %+v", st)
	}

	if _, err := s.AddTransaction(ctx, entry("2024-06-20", core.KindIncome, "Bonus", 1, "10")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ChartSeries(ctx, cfg.ID); err != nil {
		t.Fatal(err)
	}
	if st := s.ChartCache().Stats(); st.Misses != 2 {
		t.Fatalf("mutation should miss the cache: %+v", st)
	}
}

func TestChartSeriesUnknownChart(t *testing.T) {
	s := newTestService(t)
	if _, err := s.ChartSeries(context.Background(), 99); !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPreviewChartValidates(t *testing.T) {
	s := newTestService(t)
	if _, err := s.PreviewChart(core.ChartConfig{Type: core.ChartBar}); !errors.Is(err, core.ErrEmptyChartTitle) {
		t.Fatalf("err = %v", err)
	}
	data, err := s.PreviewChart(core.ChartConfig{
		Title:    "Conti",
		Type:     core.ChartBar,
		Period:   core.PeriodLast6,
		DataType: core.DataAccounts,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(data.Datasets) != 4 {
		t.Errorf("datasets = %d, want one per account", len(data.Datasets))
	}
}

func TestMutationsArePublished(t *testing.T) {
	pub := &recordingPublisher{}
	s := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	if _, err := s.DeleteAccount(ctx, 4); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.Operation != state.OpDeleteAccount || msg.Revision != s.Revision() {
		t.Errorf("message = %+v", msg)
	}
	if !msg.Touches(storage.KeyAccounts) || !msg.Touches(storage.KeyTransactions) {
		t.Errorf("collections = %v", msg.Collections)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	s := newTestService(t, WithPublisher(pub))

	if _, err := s.AddAccount(context.Background(), core.Account{Name: "Conto deposito", Type: core.AccountSavings}); err != nil {
		t.Fatalf("mutation failed: %v", err)
	}
	if len(s.Accounts()) != 5 {
		t.Fatal("account was not stored")
	}
}

func TestFailedMutationIsNotPublished(t *testing.T) {
	pub := &recordingPublisher{}
	s := newTestService(t, WithPublisher(pub))

	err := s.DeleteTransaction(context.Background(), 12345)
	if !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatal("nothing should be published for a failed mutation")
	}
}
