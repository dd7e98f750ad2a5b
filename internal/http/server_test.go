package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/state"
	"bilancio/internal/storage/memory"
)

func quietLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Handler = slog.NewTextHandler(io.Discard, nil)
	return log.New(cfg)
}

func newTestServer(t *testing.T, rateLimit int) *Server {
	t.Helper()
	store := state.New(memory.New())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	finance := services.NewFinanceService(store,
		services.WithClock(func() time.Time { return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC) }),
		services.WithLogger(quietLogger()),
	)
	srv := NewServer(Config{Addr: ":0", RateLimitPerMinute: rateLimit, Logger: quietLogger()}, finance)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

type txBody struct {
	ID          int64           `json:"id"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Account     int64           `json:"account"`
	FromAccount int64           `json:"fromAccount"`
	ToAccount   int64           `json:"toAccount"`
	Operation   string          `json:"operationType"`
	Amount      decimal.Decimal `json:"amount"`
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, 60)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		expectStatus(t, rr, http.StatusOK)
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s: missing request id", path)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: missing security headers", path)
		}
	}
}

func TestAccountsEndpoints(t *testing.T) {
	srv := newTestServer(t, 60)

	rr := do(t, srv, http.MethodGet, "/api/accounts", "")
	expectStatus(t, rr, http.StatusOK)
	if list := decode[[]map[string]any](t, rr); len(list) != 4 {
		t.Fatalf("accounts = %d, want 4", len(list))
	}

	rr = do(t, srv, http.MethodPost, "/api/accounts", `{"name":" Conto deposito ","type":"savings","initialBalance":"1500.255"}`)
	expectStatus(t, rr, http.StatusCreated)
	created := decode[struct {
		ID             int64           `json:"id"`
		Name           string          `json:"name"`
		InitialBalance decimal.Decimal `json:"initialBalance"`
	}](t, rr)
	if created.ID == 0 || created.Name != "Conto deposito" {
		t.Errorf("created = %+v", created)
	}
	if !created.InitialBalance.Equal(decimal.RequireFromString("1500.26")) {
		t.Errorf("initial balance = %s", created.InitialBalance)
	}
	if rr.Header().Get("Location") == "" {
		t.Error("missing Location header")
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "invalid type", method: http.MethodPost, path: "/api/accounts", body: `{"name":"X","type":"crypto"}`, want: http.StatusUnprocessableEntity},
		{name: "empty name", method: http.MethodPost, path: "/api/accounts", body: `{"name":"  ","type":"current"}`, want: http.StatusUnprocessableEntity},
		{name: "malformed json", method: http.MethodPost, path: "/api/accounts", body: `{"name":`, want: http.StatusBadRequest},
		{name: "unknown account", method: http.MethodDelete, path: "/api/accounts/999", want: http.StatusNotFound},
		{name: "invalid id", method: http.MethodDelete, path: "/api/accounts/abc", want: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodPatch, path: "/api/accounts", want: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, tt.body)
			expectStatus(t, rr, tt.want)
			if tt.want != http.StatusMethodNotAllowed {
				if body := decode[map[string]string](t, rr); body["error"] == "" {
					t.Errorf("missing error message: %s", rr.Body.String())
				}
			}
		})
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	srv := newTestServer(t, 60)

	expectStatus(t, do(t, srv, http.MethodPost, "/api/transactions",
		`{"date":"2024-06-02","type":"income","category":"Altro","account":3,"amount":10}`), http.StatusCreated)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/transfers",
		`{"date":"2024-06-03","fromAccount":1,"toAccount":3,"amount":5}`), http.StatusCreated)

	rr := do(t, srv, http.MethodDelete, "/api/accounts/3", "")
	expectStatus(t, rr, http.StatusOK)
	if got := decode[map[string]int](t, rr)["removedTransactions"]; got != 2 {
		t.Errorf("removedTransactions = %d, want 2", got)
	}
}

func TestTransactionsEndpoints(t *testing.T) {
	srv := newTestServer(t, 60)

	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"date":"2024-06-10","type":"expense-extra","category":"Bar","account":1,"amount":"12,50","description":"caffè"}`)
	expectStatus(t, rr, http.StatusCreated)
	entry := decode[txBody](t, rr)
	if entry.ID == 0 || !entry.Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("entry = %+v", entry)
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions",
		`{"type":"income","category":"Altro","account":2,"amount":100}`)
	expectStatus(t, rr, http.StatusCreated)
	if got := decode[txBody](t, rr).Date; got != "2024-06-15" {
		t.Errorf("default date = %q, want today", got)
	}

	rr = do(t, srv, http.MethodPost, "/api/transfers",
		`{"date":"2024-05-31","fromAccount":1,"toAccount":2,"amount":"40"}`)
	expectStatus(t, rr, http.StatusCreated)
	transfer := decode[txBody](t, rr)
	if transfer.Type != "transfer" || transfer.Operation != "Trasferimento" {
		t.Errorf("transfer = %+v", transfer)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions", "")
	expectStatus(t, rr, http.StatusOK)
	june := decode[[]txBody](t, rr)
	if len(june) != 2 || june[0].Date != "2024-06-15" {
		t.Fatalf("june = %+v", june)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?month=5&year=2024", "")
	if may := decode[[]txBody](t, rr); len(may) != 1 || may[0].ID != transfer.ID {
		t.Fatalf("may = %+v", may)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?all=true", "")
	if all := decode[[]txBody](t, rr); len(all) != 3 {
		t.Fatalf("all = %d", len(all))
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?month=1&year=2020", "")
	expectStatus(t, rr, http.StatusOK)
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("empty month body = %s", rr.Body.String())
	}

	expectStatus(t, do(t, srv, http.MethodDelete, "/api/transactions/"+itoa(entry.ID), ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodDelete, "/api/transactions/"+itoa(entry.ID), ""), http.StatusNotFound)
}

func TestTransactionValidation(t *testing.T) {
	srv := newTestServer(t, 60)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "zero amount", path: "/api/transactions", body: `{"type":"income","category":"Altro","account":1,"amount":0}`, want: http.StatusUnprocessableEntity},
		{name: "negative amount", path: "/api/transactions", body: `{"type":"income","category":"Altro","account":1,"amount":"-5"}`, want: http.StatusUnprocessableEntity},
		{name: "unknown account", path: "/api/transactions", body: `{"type":"income","category":"Altro","account":99,"amount":5}`, want: http.StatusUnprocessableEntity},
		{name: "missing category", path: "/api/transactions", body: `{"type":"income","account":1,"amount":5}`, want: http.StatusUnprocessableEntity},
		{name: "transfer kind on entries", path: "/api/transactions", body: `{"type":"transfer","category":"x","account":1,"amount":5}`, want: http.StatusUnprocessableEntity},
		{name: "bad date", path: "/api/transactions", body: `{"date":"15/06/2024","type":"income","category":"Altro","account":1,"amount":5}`, want: http.StatusUnprocessableEntity},
		{name: "same account transfer", path: "/api/transfers", body: `{"fromAccount":1,"toAccount":1,"amount":5}`, want: http.StatusUnprocessableEntity},
		{name: "transfer to unknown account", path: "/api/transfers", body: `{"fromAccount":1,"toAccount":42,"amount":5}`, want: http.StatusUnprocessableEntity},
		{name: "amount of wrong type", path: "/api/transfers", body: `{"fromAccount":1,"toAccount":2,"amount":[1]}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, do(t, srv, http.MethodPost, tt.path, tt.body), tt.want)
		})
	}

	rr := do(t, srv, http.MethodGet, "/api/transactions?all=true", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("rejected requests must not store anything: %s", rr.Body.String())
	}
}

func TestCategoriesEndpoints(t *testing.T) {
	srv := newTestServer(t, 60)

	rr := do(t, srv, http.MethodPost, "/api/categories/income/labels", `{"label":"Bonus"}`)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"Bonus"`) {
		t.Fatalf("label not added: %s", rr.Body.String())
	}
	expectStatus(t, do(t, srv, http.MethodPost, "/api/categories/income/labels", `{"label":"Bonus"}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/categories/crypto/labels", `{"label":"BTC"}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/categories/income/groups", `{"group":"Lavoro"}`), http.StatusUnprocessableEntity)

	rr = do(t, srv, http.MethodPost, "/api/categories/expense-extra/groups", `{"group":"Sport"}`)
	expectStatus(t, rr, http.StatusOK)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/categories/expense-extra/labels", `{"group":"Sport","label":"Palestra"}`), http.StatusOK)
	expectStatus(t, do(t, srv, http.MethodDelete, "/api/categories/expense-extra/labels", `{"group":"Sport","label":"Palestra"}`), http.StatusOK)
	expectStatus(t, do(t, srv, http.MethodDelete, "/api/categories/expense-extra/groups", `{"group":"Sport"}`), http.StatusOK)
	expectStatus(t, do(t, srv, http.MethodDelete, "/api/categories/expense-extra/groups", `{"group":"Sport"}`), http.StatusUnprocessableEntity)

	rr = do(t, srv, http.MethodPut, "/api/categories", `{"income":["Stipendio"],"withdrawal":["Bancomat"]}`)
	expectStatus(t, rr, http.StatusOK)
	replaced := decode[map[string]any](t, rr)
	if _, ok := replaced["expense-extra"]; ok {
		t.Errorf("replace should drop kinds missing from the body: %v", replaced)
	}

	rr = do(t, srv, http.MethodPost, "/api/categories/reset", "")
	expectStatus(t, rr, http.StatusOK)
	if strings.Contains(rr.Body.String(), "Stipendio") || !strings.Contains(rr.Body.String(), "Svago") {
		t.Errorf("reset did not restore defaults: %s", rr.Body.String())
	}
}

func TestChartsEndpoints(t *testing.T) {
	srv := newTestServer(t, 60)

	rr := do(t, srv, http.MethodGet, "/api/charts", "")
	expectStatus(t, rr, http.StatusOK)
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("charts = %s", rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/api/charts",
		`{"id":77,"title":"Ultimi mesi","type":"line","period":"last3","dataType":"overview"}`)
	expectStatus(t, rr, http.StatusCreated)
	chart := decode[struct {
		ID int64 `json:"id"`
	}](t, rr)
	if chart.ID == 0 || chart.ID == 77 {
		t.Fatalf("chart id = %d, want a fresh one", chart.ID)
	}
	id := itoa(chart.ID)

	rr = do(t, srv, http.MethodGet, "/api/charts/"+id+"/series", "")
	expectStatus(t, rr, http.StatusOK)
	series := decode[struct {
		Labels []string `json:"labels"`
	}](t, rr)
	if len(series.Labels) != 3 || series.Labels[2] != "giu 24" {
		t.Errorf("labels = %v", series.Labels)
	}

	rr = do(t, srv, http.MethodPut, "/api/charts/"+id,
		`{"title":"Conti","type":"bar","period":"last6","dataType":"accounts"}`)
	expectStatus(t, rr, http.StatusOK)
	rr = do(t, srv, http.MethodGet, "/api/charts/"+id+"/series", "")
	if got := decode[struct {
		Labels []string `json:"labels"`
	}](t, rr); len(got.Labels) != 6 {
		t.Errorf("updated chart labels = %v", got.Labels)
	}

	expectStatus(t, do(t, srv, http.MethodPut, "/api/charts/999",
		`{"title":"X","type":"bar","period":"last6","dataType":"accounts"}`), http.StatusNotFound)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/charts",
		`{"title":"","type":"bar","period":"last6","dataType":"accounts"}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/charts",
		`{"title":"X","type":"radar","period":"last6","dataType":"accounts"}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodGet, "/api/charts/999/series", ""), http.StatusNotFound)

	rr = do(t, srv, http.MethodPost, "/api/charts/preview",
		`{"title":"Anteprima","type":"pie","period":"currentYear","dataType":"categories"}`)
	expectStatus(t, rr, http.StatusOK)
	if list := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/charts", "")); len(list) != 1 {
		t.Errorf("preview must not save: %d charts", len(list))
	}

	expectStatus(t, do(t, srv, http.MethodDelete, "/api/charts/"+id, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodDelete, "/api/charts/"+id, ""), http.StatusNotFound)
}

func TestReportEndpoints(t *testing.T) {
	srv := newTestServer(t, 60)
	for _, body := range []string{
		`{"date":"2024-06-01","type":"income","category":"Altro","account":1,"amount":1000}`,
		`{"date":"2024-06-05","type":"expense-necessity","category":"Gas","account":1,"amount":200}`,
		`{"date":"2024-05-05","type":"expense-extra","category":"Bar","account":2,"amount":50}`,
	} {
		expectStatus(t, do(t, srv, http.MethodPost, "/api/transactions", body), http.StatusCreated)
	}

	rr := do(t, srv, http.MethodGet, "/api/dashboard", "")
	expectStatus(t, rr, http.StatusOK)
	dash := decode[struct {
		Label string `json:"label"`
		Stats struct {
			Net decimal.Decimal `json:"net"`
		} `json:"stats"`
		TotalBalance decimal.Decimal `json:"totalBalance"`
	}](t, rr)
	if dash.Label != "giu 24" || !dash.Stats.Net.Equal(decimal.NewFromInt(800)) || !dash.TotalBalance.Equal(decimal.NewFromInt(750)) {
		t.Errorf("dashboard = %+v", dash)
	}

	rr = do(t, srv, http.MethodGet, "/api/dashboard?month=5&year=2024", "")
	may := decode[struct {
		Label string `json:"label"`
	}](t, rr)
	if may.Label != "mag 24" {
		t.Errorf("may label = %q", may.Label)
	}

	rr = do(t, srv, http.MethodGet, "/api/analysis?month=13", "")
	expectStatus(t, rr, http.StatusOK)
	analysis := decode[struct {
		Month       int             `json:"month"`
		Trend       []any           `json:"trend"`
		SavingsRate decimal.Decimal `json:"savingsRate"`
	}](t, rr)
	if analysis.Month != 6 || len(analysis.Trend) != 6 || !analysis.SavingsRate.Equal(decimal.NewFromInt(80)) {
		t.Errorf("analysis = %+v", analysis)
	}

	for query, want := range map[string]int{"": 6, "?months=3": 3, "?months=0": 1, "?months=100": 36} {
		rr = do(t, srv, http.MethodGet, "/api/trend"+query, "")
		expectStatus(t, rr, http.StatusOK)
		trend := decode[struct {
			Months []struct {
				Label string `json:"label"`
			} `json:"months"`
		}](t, rr)
		if len(trend.Months) != want {
			t.Errorf("trend%s has %d months, want %d", query, len(trend.Months), want)
		}
	}
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	srv := newTestServer(t, 1)

	expectStatus(t, do(t, srv, http.MethodPost, "/api/accounts", `{"name":"A","type":"current"}`), http.StatusCreated)
	rr := do(t, srv, http.MethodPost, "/api/accounts", `{"name":"B","type":"current"}`)
	expectStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if body := decode[map[string]string](t, rr); body["error"] == "" {
		t.Errorf("body = %s", rr.Body.String())
	}

	expectStatus(t, do(t, srv, http.MethodGet, "/api/accounts", ""), http.StatusOK)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
