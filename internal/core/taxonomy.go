package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrUnknownKind    = errors.New("unknown category kind")
	ErrUnknownGroup   = errors.New("unknown category group")
	ErrUnknownLabel   = errors.New("unknown category label")
	ErrDuplicateLabel = errors.New("category already exists")
	ErrNotGrouped     = errors.New("categories of this kind are not grouped")
	ErrNotFlat        = errors.New("categories of this kind are grouped")
)

// Categories is the label list of one transaction kind: either Flat or Grouped.
type Categories interface {
	Labels() []string

	isCategories()
}

// Flat is a plain ordered list of labels.
type Flat []string

// Group is a named run of labels inside a Grouped taxonomy.
type Group struct {
	Name   string
	Labels []string
}

// Grouped keeps groups in insertion order.
type Grouped []Group

func (f Flat) Labels() []string { return slices.Clone([]string(f)) }
func (Flat) isCategories()      {}

func (g Grouped) Labels() []string {
	var out []string
	for _, grp := range g {
		out = append(out, grp.Labels...)
	}
	return out
}
func (Grouped) isCategories() {}

func (g Grouped) find(name string) int {
	return slices.IndexFunc(g, func(grp Group) bool { return grp.Name == name })
}

func (g Grouped) clone() Grouped {
	out := make(Grouped, len(g))
	for i, grp := range g {
		out[i] = Group{Name: grp.Name, Labels: slices.Clone(grp.Labels)}
	}
	return out
}

// MarshalJSON writes the groups as an object whose key order is the group order.
func (g Grouped) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, grp := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(grp.Name)
		if err != nil {
			return nil, err
		}
		labels := grp.Labels
		if labels == nil {
			labels = []string{}
		}
		v, err := json.Marshal(labels)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (g *Grouped) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("grouped categories: expected object")
	}
	var out Grouped
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var labels []string
		if err := dec.Decode(&labels); err != nil {
			return fmt.Errorf("group %q: %w", name, err)
		}
		out = append(out, Group{Name: name, Labels: labels})
	}
	*g = out
	return nil
}

// Taxonomy maps each entry kind to its categories.
type Taxonomy map[Kind]Categories

func (t *Taxonomy) UnmarshalJSON(data []byte) error {
	var raw map[Kind]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Taxonomy, len(raw))
	for kind, r := range raw {
		r = bytes.TrimSpace(r)
		if len(r) == 0 {
			continue
		}
		switch r[0] {
		case '[':
			var f Flat
			if err := json.Unmarshal(r, &f); err != nil {
				return fmt.Errorf("categories %s: %w", kind, err)
			}
			out[kind] = f
		case '{':
			var g Grouped
			if err := json.Unmarshal(r, &g); err != nil {
				return fmt.Errorf("categories %s: %w", kind, err)
			}
			out[kind] = g
		default:
			return fmt.Errorf("categories %s: expected list or object", kind)
		}
	}
	*t = out
	return nil
}

// Clone returns a deep copy.
func (t Taxonomy) Clone() Taxonomy {
	out := make(Taxonomy, len(t))
	for k, c := range t {
		switch v := c.(type) {
		case Flat:
			out[k] = Flat(slices.Clone([]string(v)))
		case Grouped:
			out[k] = v.clone()
		}
	}
	return out
}

// Contains reports whether label is listed for kind.
func (t Taxonomy) Contains(kind Kind, label string) bool {
	c, ok := t[kind]
	if !ok {
		return false
	}
	return slices.Contains(c.Labels(), label)
}

// AddLabel appends label to kind. group must be empty for flat kinds and
// name an existing group otherwise. The receiver is never modified.
func (t Taxonomy) AddLabel(kind Kind, group, label string) (Taxonomy, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrEmptyCategory
	}
	out := t.Clone()
	switch c := out[kind].(type) {
	case nil:
		return nil, ErrUnknownKind
	case Flat:
		if group != "" {
			return nil, ErrNotGrouped
		}
		if slices.Contains(c, label) {
			return nil, ErrDuplicateLabel
		}
		out[kind] = append(c, label)
	case Grouped:
		i := c.find(group)
		if i < 0 {
			if group == "" {
				return nil, ErrNotFlat
			}
			return nil, ErrUnknownGroup
		}
		if slices.Contains(c[i].Labels, label) {
			return nil, ErrDuplicateLabel
		}
		c[i].Labels = append(c[i].Labels, label)
		out[kind] = c
	}
	return out, nil
}

func (t Taxonomy) RemoveLabel(kind Kind, group, label string) (Taxonomy, error) {
	out := t.Clone()
	switch c := out[kind].(type) {
	case nil:
		return nil, ErrUnknownKind
	case Flat:
		if group != "" {
			return nil, ErrNotGrouped
		}
		i := slices.Index(c, label)
		if i < 0 {
			return nil, ErrUnknownLabel
		}
		out[kind] = slices.Delete(c, i, i+1)
	case Grouped:
		gi := c.find(group)
		if gi < 0 {
			if group == "" {
				return nil, ErrNotFlat
			}
			return nil, ErrUnknownGroup
		}
		i := slices.Index(c[gi].Labels, label)
		if i < 0 {
			return nil, ErrUnknownLabel
		}
		c[gi].Labels = slices.Delete(c[gi].Labels, i, i+1)
		out[kind] = c
	}
	return out, nil
}

// AddGroup appends an empty group. Only grouped kinds accept groups.
func (t Taxonomy) AddGroup(kind Kind, group string) (Taxonomy, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		return nil, ErrEmptyCategory
	}
	out := t.Clone()
	switch c := out[kind].(type) {
	case nil:
		return nil, ErrUnknownKind
	case Flat:
		return nil, ErrNotGrouped
	case Grouped:
		if c.find(group) >= 0 {
			return nil, ErrDuplicateLabel
		}
		out[kind] = append(c, Group{Name: group, Labels: []string{}})
	}
	return out, nil
}

func (t Taxonomy) RemoveGroup(kind Kind, group string) (Taxonomy, error) {
	out := t.Clone()
	switch c := out[kind].(type) {
	case nil:
		return nil, ErrUnknownKind
	case Flat:
		return nil, ErrNotGrouped
	case Grouped:
		i := c.find(group)
		if i < 0 {
			return nil, ErrUnknownGroup
		}
		out[kind] = slices.Delete(c, i, i+1)
	}
	return out, nil
}

// DefaultTaxonomy returns a fresh copy of the built-in Italian categories.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		KindIncome: Flat{"Reddito Principale", "Reddito Secondario", "Affitto", "Vendita", "Altro"},
		KindExpenseNecessity: Grouped{
			{Name: "Casa", Labels: []string{"Mutuo/Affitto", "Elettricità", "Gas", "Acqua", "Manutenzione Casa", "Tasse", "Telefono/Internet", "Assicurazione Casa", "Spesa/Cibo"}},
			{Name: "Trasporti", Labels: []string{"Rate auto", "Assicurazione Auto", "Benzina", "Manutenzione", "Bollo", "Pedaggi", "Parcheggi", "Mezzi pubblici", "Multa"}},
			{Name: "Salute", Labels: []string{"Medicinali", "Polizze", "Visite mediche/esami", "Sport", "Occhiali/Lenti"}},
			{Name: "Figli", Labels: []string{"Scuola", "Abbigliamento", "Attività extra", "Babysitting"}},
			{Name: "Istruzione", Labels: []string{"Retta scolastica", "Libri scolastici", "Formazione"}},
			{Name: "Altro", Labels: []string{"Abbigliamento/Calzature", "Rate prestito", "Rate carta di credito", "Una tantum"}},
		},
		KindExpenseExtra: Grouped{
			{Name: "Svago", Labels: []string{"Ristorazione", "Bar", "Cinema/Uscite/Eventi", "Abbonamenti digitali", "Cura personale", "Donazioni e Regali", "Divertimento", "Fumo", "Arredamento", "Cultura", "Viaggi", "Shopping"}},
			{Name: "Animali", Labels: []string{"Cibo", "Veterinario"}},
		},
		KindWithdrawal: Flat{"Prelievo"},
	}
}

// DefaultAccounts returns the four accounts a fresh installation starts with.
func DefaultAccounts() []Account {
	return []Account{
		{ID: 1, Name: "N26", Type: AccountCurrent},
		{ID: 2, Name: "Intesa SanPaolo", Type: AccountCurrent},
		{ID: 3, Name: "Revolut", Type: AccountCurrent},
		{ID: 4, Name: "PayPal", Type: AccountCurrent},
	}
}
