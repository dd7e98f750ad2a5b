package files

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/state"
)

func sample() []core.Transaction {
	return []core.Transaction{
		core.Entry{ID: 1, Date: "2024-06-01", Kind: core.KindIncome, Category: "Stipendio", Account: 1, Amount: decimal.RequireFromString("1500.00")},
		core.Entry{ID: 2, Date: "2024-06-02", Kind: core.KindExpenseExtra, Category: "Bar", Account: 2, Amount: decimal.RequireFromString("3.20"), Description: "caffè, cornetto"},
		core.Transfer{ID: 3, Date: "2024-06-03", OperationType: "Risparmio", FromAccount: 1, ToAccount: 2, Amount: decimal.RequireFromString("200")},
	}
}

func TestExportImportEveryFormat(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML, FormatCSV} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := ExportTransactions(&buf, format, sample()); err != nil {
				t.Fatalf("export: %v", err)
			}
			got, err := ImportTransactions(&buf, format)
			if err != nil {
				t.Fatalf("import: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("imported %d transactions", len(got))
			}
			bar, ok := got[1].(core.Entry)
			if !ok || bar.Description != "caffè, cornetto" || !bar.Amount.Equal(decimal.RequireFromString("3.2")) {
				t.Errorf("entry = %+v", got[1])
			}
			tr, ok := got[2].(core.Transfer)
			if !ok || tr.FromAccount != 1 || tr.ToAccount != 2 || tr.OperationType != "Risparmio" {
				t.Errorf("transfer = %+v", got[2])
			}
		})
	}
}

func TestCSVLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportTransactions(&buf, FormatCSV, sample()[2:]); err != nil {
		t.Fatal(err)
	}
	want := "date,type,category,account,from_account,to_account,operation_type,amount,description\n" +
		"2024-06-03,transfer,,,1,2,Risparmio,200.00,\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestImportReportsRow(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		doc     string
		wantRow int
		wantErr error
	}{
		{
			name:    "csv negative amount",
			format:  FormatCSV,
			doc:     "date,type,category,account,from_account,to_account,operation_type,amount,description\n2024-01-01,income,Stipendio,1,,,,10,\n2024-01-02,expense-extra,Bar,1,,,,-5,\n",
			wantRow: 2,
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "csv same account transfer",
			format:  FormatCSV,
			doc:     "2024-01-01,transfer,,,1,1,,10,\n",
			wantRow: 1,
			wantErr: core.ErrSameAccount,
		},
		{
			name:    "yaml unknown type",
			format:  FormatYAML,
			doc:     "- date: 2024-01-01\n  type: gift\n  category: Regali\n  account: 1\n  amount: \"5\"\n",
			wantRow: 1,
			wantErr: core.ErrInvalidKind,
		},
		{
			name:    "json bad date",
			format:  FormatJSON,
			doc:     `[{"date":"2024-01-01","type":"income","category":"X","account":1,"amount":"1"},{"date":"ieri","type":"income","category":"X","account":1,"amount":"1"}]`,
			wantRow: 2,
			wantErr: core.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportTransactions(strings.NewReader(tt.doc), tt.format)
			var rowErr *RowError
			if !errors.As(err, &rowErr) {
				t.Fatalf("err = %v, want *RowError", err)
			}
			if rowErr.Row != tt.wantRow || !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want row %d wrapping %v", err, tt.wantRow, tt.wantErr)
			}
		})
	}
}

func TestImportRejectsEmptyAndMalformed(t *testing.T) {
	if _, err := ImportTransactions(strings.NewReader("  \n"), FormatJSON); err == nil {
		t.Error("empty document should fail")
	}
	if _, err := ImportTransactions(strings.NewReader("a,b\n"), FormatCSV); err == nil {
		t.Error("short csv record should fail")
	}
	if _, err := ImportTransactions(strings.NewReader("[]"), Format("xml")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"export.json", FormatJSON, true},
		{"data/movimenti.YML", FormatYAML, true},
		{"movimenti.csv", FormatCSV, true},
		{"movimenti.xlsx", "", false},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("FormatOf(%q) = %q, %v", tt.path, got, err)
		}
	}
}

func TestBackupRoundTripKeepsEveryCollection(t *testing.T) {
	snap := state.Snapshot{
		Accounts:     core.DefaultAccounts(),
		Transactions: sample(),
		Categories:   core.DefaultTaxonomy(),
		Charts: []core.ChartConfig{{
			ID: 9, Title: "Spese", Type: core.ChartPie, Period: core.PeriodLast3, DataType: core.DataCategories,
		}, {
			ID: 10, Title: "Conti", Type: core.ChartLine, Period: core.PeriodCustom, DataType: core.DataAccounts,
			Options: core.ChartOptions{ShowNet: core.Bool(false), SelectedAccounts: []int64{}, StartDate: "2024-01", EndDate: "2024-03"},
		}},
	}

	var buf bytes.Buffer
	if err := WriteBackup(&buf, snap); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"customCharts"`) {
		t.Error("charts should be stored under customCharts")
	}

	got, err := ReadBackup(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Accounts) != 4 || len(got.Transactions) != 3 || len(got.Charts) != 2 {
		t.Fatalf("restored %d accounts, %d transactions, %d charts", len(got.Accounts), len(got.Transactions), len(got.Charts))
	}
	if !got.Categories.Contains(core.KindExpenseExtra, "Bar") {
		t.Error("taxonomy lost")
	}

	opts := got.Charts[1].Options
	if opts.SelectedAccounts == nil || len(opts.SelectedAccounts) != 0 {
		t.Errorf("empty selection became %#v", opts.SelectedAccounts)
	}
	if opts.NetShown() || opts.StartDate != "2024-01" || opts.EndDate != "2024-03" {
		t.Errorf("chart options lost: %+v", opts)
	}
	if got.Charts[0].Options.SelectedAccounts != nil {
		t.Errorf("unset selection became %#v", got.Charts[0].Options.SelectedAccounts)
	}
}

func TestReadBackupRejectsInvalidAccount(t *testing.T) {
	doc := `{"accounts":[{"id":1,"name":"","type":"current","initialBalance":"0"}],"transactions":[],"categories":{},"customCharts":[]}`
	if _, err := ReadBackup(strings.NewReader(doc)); !errors.Is(err, core.ErrEmptyAccountName) {
		t.Fatalf("err = %v", err)
	}
}
