package core

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestTaxonomyJSONKeepsShapeAndGroupOrder(t *testing.T) {
	in := `{
		"income": ["Stipendio", "Altro"],
		"expense-extra": {"Svago": ["Bar", "Cinema"], "Animali": ["Cibo"]}
	}`
	var tax Taxonomy
	if err := json.Unmarshal([]byte(in), &tax); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	flat, ok := tax[KindIncome].(Flat)
	if !ok || !slices.Equal(flat, Flat{"Stipendio", "Altro"}) {
		t.Fatalf("income decoded as %#v", tax[KindIncome])
	}
	grouped, ok := tax[KindExpenseExtra].(Grouped)
	if !ok || len(grouped) != 2 || grouped[0].Name != "Svago" || grouped[1].Name != "Animali" {
		t.Fatalf("expense-extra decoded as %#v", tax[KindExpenseExtra])
	}

	out, err := json.Marshal(tax)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `{"Svago":["Bar","Cinema"],"Animali":["Cibo"]}`) {
		t.Fatalf("group order lost: %s", out)
	}
}

func TestTaxonomyRejectsScalar(t *testing.T) {
	var tax Taxonomy
	if err := json.Unmarshal([]byte(`{"income": "Stipendio"}`), &tax); err == nil {
		t.Fatal("expected error for scalar categories")
	}
}

func TestTaxonomyEdits(t *testing.T) {
	base := DefaultTaxonomy()

	got, err := base.AddLabel(KindIncome, "", "Bonus")
	if err != nil || !got.Contains(KindIncome, "Bonus") {
		t.Fatalf("add flat label: %v", err)
	}
	if base.Contains(KindIncome, "Bonus") {
		t.Fatal("AddLabel mutated the receiver")
	}

	got, err = base.AddLabel(KindExpenseExtra, "Animali", "Toelettatura")
	if err != nil || !got.Contains(KindExpenseExtra, "Toelettatura") {
		t.Fatalf("add grouped label: %v", err)
	}

	got, err = base.RemoveLabel(KindExpenseExtra, "Svago", "Bar")
	if err != nil || got.Contains(KindExpenseExtra, "Bar") {
		t.Fatalf("remove grouped label: %v", err)
	}
	if !base.Contains(KindExpenseExtra, "Bar") {
		t.Fatal("RemoveLabel mutated the receiver")
	}

	got, err = base.AddGroup(KindExpenseNecessity, "Viaggi")
	if err != nil {
		t.Fatalf("add group: %v", err)
	}
	g := got[KindExpenseNecessity].(Grouped)
	if g[len(g)-1].Name != "Viaggi" {
		t.Fatalf("new group not appended: %v", g[len(g)-1].Name)
	}

	got, err = base.RemoveGroup(KindExpenseExtra, "Animali")
	if err != nil || got.Contains(KindExpenseExtra, "Veterinario") {
		t.Fatalf("remove group: %v", err)
	}
}

func TestTaxonomyEditErrors(t *testing.T) {
	base := DefaultTaxonomy()
	cases := []struct {
		name string
		op   func() error
		want error
	}{
		{"unknown kind", func() error { _, err := base.AddLabel(Kind("gift"), "", "x"); return err }, ErrUnknownKind},
		{"duplicate flat", func() error { _, err := base.AddLabel(KindIncome, "", "Altro"); return err }, ErrDuplicateLabel},
		{"group on flat", func() error { _, err := base.AddLabel(KindIncome, "Casa", "x"); return err }, ErrNotGrouped},
		{"missing group", func() error { _, err := base.AddLabel(KindExpenseExtra, "", "x"); return err }, ErrNotFlat},
		{"unknown group", func() error { _, err := base.AddLabel(KindExpenseExtra, "Nope", "x"); return err }, ErrUnknownGroup},
		{"empty label", func() error { _, err := base.AddLabel(KindIncome, "", "  "); return err }, ErrEmptyCategory},
		{"remove unknown label", func() error { _, err := base.RemoveLabel(KindIncome, "", "Nope"); return err }, ErrUnknownLabel},
		{"group on flat kind", func() error { _, err := base.AddGroup(KindWithdrawal, "G"); return err }, ErrNotGrouped},
		{"duplicate group", func() error { _, err := base.AddGroup(KindExpenseExtra, "Svago"); return err }, ErrDuplicateLabel},
		{"remove unknown group", func() error { _, err := base.RemoveGroup(KindExpenseExtra, "Nope"); return err }, ErrUnknownGroup},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.op(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDefaultTaxonomyIsFresh(t *testing.T) {
	a := DefaultTaxonomy()
	a[KindIncome] = Flat{}
	if len(DefaultTaxonomy()[KindIncome].Labels()) == 0 {
		t.Fatal("DefaultTaxonomy shares state between calls")
	}
}
