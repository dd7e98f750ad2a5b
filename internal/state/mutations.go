package state

import (
	"context"
	"fmt"
	"slices"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

const (
	OpAddAccount        = "add_account"
	OpDeleteAccount     = "delete_account"
	OpAddTransaction    = "add_transaction"
	OpDeleteTransaction = "delete_transaction"
	OpUpdateCategories  = "update_categories"
	OpResetCategories   = "reset_categories"
	OpSaveChart         = "save_chart"
	OpDeleteChart       = "delete_chart"
	OpImport            = "import_transactions"
	OpRestore           = "restore"
)

// AddAccount stores a new account with a fresh id and returns it.
func (s *Store) AddAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	_, err := s.mutate(ctx, OpAddAccount, []string{storage.KeyAccounts}, func(next *Snapshot) error {
		a.ID = s.nextID()
		next.Accounts = append(next.Accounts, a)
		return nil
	})
	return a, err
}

// DeleteAccount removes the account and every transaction that touches it.
// It returns how many transactions went with it.
func (s *Store) DeleteAccount(ctx context.Context, id int64) (int, error) {
	removed := 0
	_, err := s.mutate(ctx, OpDeleteAccount, []string{storage.KeyAccounts, storage.KeyTransactions}, func(next *Snapshot) error {
		i := slices.IndexFunc(next.Accounts, func(a core.Account) bool { return a.ID == id })
		if i < 0 {
			return fmt.Errorf("account %d: %w", id, ErrNotFound)
		}
		next.Accounts = slices.Delete(next.Accounts, i, i+1)
		before := len(next.Transactions)
		next.Transactions = slices.DeleteFunc(next.Transactions, func(tx core.Transaction) bool {
			return core.References(tx, id)
		})
		removed = before - len(next.Transactions)
		return nil
	})
	return removed, err
}

// AddTransaction validates tx, checks its account references and stores it
// with a fresh id.
func (s *Store) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	var stored core.Transaction
	_, err := s.mutate(ctx, OpAddTransaction, []string{storage.KeyTransactions}, func(next *Snapshot) error {
		if err := checkAccounts(next.Accounts, tx); err != nil {
			return err
		}
		stored = core.WithID(tx, s.nextID())
		next.Transactions = append(next.Transactions, stored)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ImportTransactions appends a validated batch in one save. Ids are
// reassigned.
func (s *Store) ImportTransactions(ctx context.Context, txns []core.Transaction) (int, error) {
	for i, tx := range txns {
		if err := tx.Validate(); err != nil {
			return 0, fmt.Errorf("transaction %d: %w", i+1, err)
		}
	}
	_, err := s.mutate(ctx, OpImport, []string{storage.KeyTransactions}, func(next *Snapshot) error {
		for i, tx := range txns {
			if err := checkAccounts(next.Accounts, tx); err != nil {
				return fmt.Errorf("transaction %d: %w", i+1, err)
			}
			next.Transactions = append(next.Transactions, core.WithID(tx, s.nextID()))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(txns), nil
}

func checkAccounts(accounts []core.Account, tx core.Transaction) error {
	var ids []int64
	switch t := tx.(type) {
	case core.Entry:
		ids = []int64{t.Account}
	case core.Transfer:
		ids = []int64{t.FromAccount, t.ToAccount}
	}
	for _, id := range ids {
		if _, ok := core.FindAccount(accounts, id); !ok {
			return fmt.Errorf("account %d: %w", id, ErrUnknownAccount)
		}
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := s.mutate(ctx, OpDeleteTransaction, []string{storage.KeyTransactions}, func(next *Snapshot) error {
		i := slices.IndexFunc(next.Transactions, func(tx core.Transaction) bool { return tx.TxID() == id })
		if i < 0 {
			return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
		}
		next.Transactions = slices.Delete(next.Transactions, i, i+1)
		return nil
	})
	return err
}

// UpdateCategories replaces the whole taxonomy.
func (s *Store) UpdateCategories(ctx context.Context, t core.Taxonomy) error {
	_, err := s.mutate(ctx, OpUpdateCategories, []string{storage.KeyCategories}, func(next *Snapshot) error {
		next.Categories = t.Clone()
		return nil
	})
	return err
}

func (s *Store) ResetCategories(ctx context.Context) error {
	_, err := s.mutate(ctx, OpResetCategories, []string{storage.KeyCategories}, func(next *Snapshot) error {
		next.Categories = core.DefaultTaxonomy()
		return nil
	})
	return err
}

func (s *Store) editCategories(ctx context.Context, edit func(core.Taxonomy) (core.Taxonomy, error)) error {
	_, err := s.mutate(ctx, OpUpdateCategories, []string{storage.KeyCategories}, func(next *Snapshot) error {
		t, err := edit(next.Categories)
		if err != nil {
			return err
		}
		next.Categories = t
		return nil
	})
	return err
}

func (s *Store) AddCategory(ctx context.Context, kind core.Kind, group, label string) error {
	return s.editCategories(ctx, func(t core.Taxonomy) (core.Taxonomy, error) { return t.AddLabel(kind, group, label) })
}

func (s *Store) RemoveCategory(ctx context.Context, kind core.Kind, group, label string) error {
	return s.editCategories(ctx, func(t core.Taxonomy) (core.Taxonomy, error) { return t.RemoveLabel(kind, group, label) })
}

func (s *Store) AddCategoryGroup(ctx context.Context, kind core.Kind, group string) error {
	return s.editCategories(ctx, func(t core.Taxonomy) (core.Taxonomy, error) { return t.AddGroup(kind, group) })
}

func (s *Store) RemoveCategoryGroup(ctx context.Context, kind core.Kind, group string) error {
	return s.editCategories(ctx, func(t core.Taxonomy) (core.Taxonomy, error) { return t.RemoveGroup(kind, group) })
}

// SaveChart inserts cfg, or replaces the chart with the same id in place.
// A zero id always inserts with a fresh one.
func (s *Store) SaveChart(ctx context.Context, cfg core.ChartConfig) (core.ChartConfig, error) {
	if err := cfg.Validate(); err != nil {
		return core.ChartConfig{}, err
	}
	_, err := s.mutate(ctx, OpSaveChart, []string{storage.KeyCharts}, func(next *Snapshot) error {
		if cfg.ID != 0 {
			if i := slices.IndexFunc(next.Charts, func(c core.ChartConfig) bool { return c.ID == cfg.ID }); i >= 0 {
				next.Charts[i] = cfg
				return nil
			}
		} else {
			cfg.ID = s.nextID()
		}
		next.Charts = append(next.Charts, cfg)
		return nil
	})
	return cfg, err
}

func (s *Store) DeleteChart(ctx context.Context, id int64) error {
	_, err := s.mutate(ctx, OpDeleteChart, []string{storage.KeyCharts}, func(next *Snapshot) error {
		i := slices.IndexFunc(next.Charts, func(c core.ChartConfig) bool { return c.ID == id })
		if i < 0 {
			return fmt.Errorf("chart %d: %w", id, ErrNotFound)
		}
		next.Charts = slices.Delete(next.Charts, i, i+1)
		return nil
	})
	return err
}

// Chart returns a saved chart by id.
func (s *Store) Chart(id int64) (core.ChartConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.snap.Charts {
		if c.ID == id {
			c.Options.SelectedAccounts = slices.Clone(c.Options.SelectedAccounts)
			return c, nil
		}
	}
	return core.ChartConfig{}, fmt.Errorf("chart %d: %w", id, ErrNotFound)
}

// Restore replaces every collection with snap, e.g. from a backup.
func (s *Store) Restore(ctx context.Context, snap Snapshot) error {
	_, err := s.mutate(ctx, OpRestore, storage.Keys(), func(next *Snapshot) error {
		restored := snap.clone()
		if len(restored.Categories) == 0 {
			restored.Categories = core.DefaultTaxonomy()
		}
		*next = restored
		if m := maxID(restored); m > s.lastID {
			s.lastID = m
		}
		return nil
	})
	return err
}
