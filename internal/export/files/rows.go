// Package files moves transactions and whole-state backups in and out of
// JSON, YAML and CSV documents.
package files

import (
	"errors"
	"fmt"
	"strings"

	"bilancio/internal/core"
)

// Row is the flat form of a transaction used by the YAML and CSV formats.
type Row struct {
	Date          string `yaml:"date"`
	Type          string `yaml:"type"`
	Category      string `yaml:"category,omitempty"`
	Account       int64  `yaml:"account,omitempty"`
	FromAccount   int64  `yaml:"from_account,omitempty"`
	ToAccount     int64  `yaml:"to_account,omitempty"`
	OperationType string `yaml:"operation_type,omitempty"`
	Amount        string `yaml:"amount"`
	Description   string `yaml:"description,omitempty"`
}

// RowError reports which record of an imported document was rejected.
// Records are numbered from 1, not counting headers.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e *RowError) Unwrap() error { return e.Err }

// RowOf flattens a transaction.
func RowOf(tx core.Transaction) Row {
	r := Row{
		Date:   tx.TxDate(),
		Type:   string(tx.TxKind()),
		Amount: tx.TxAmount().StringFixed(2),
	}
	switch t := tx.(type) {
	case core.Entry:
		r.Category = t.Category
		r.Account = t.Account
		r.Description = t.Description
	case core.Transfer:
		r.FromAccount = t.FromAccount
		r.ToAccount = t.ToAccount
		r.OperationType = t.OperationType
		r.Description = t.Description
	}
	return r
}

// Transaction rebuilds and validates the transaction a row describes.
func (r Row) Transaction() (core.Transaction, error) {
	amount, err := core.ParseAmount(r.Amount)
	if err != nil {
		return nil, err
	}
	kind := core.Kind(strings.TrimSpace(r.Type))

	var tx core.Transaction
	switch {
	case kind == core.KindTransfer:
		op := strings.TrimSpace(r.OperationType)
		if op == "" {
			op = core.DefaultOperationType
		}
		tx = core.Transfer{
			Date:          strings.TrimSpace(r.Date),
			OperationType: op,
			FromAccount:   r.FromAccount,
			ToAccount:     r.ToAccount,
			Amount:        amount,
			Description:   strings.TrimSpace(r.Description),
		}
	case kind.IsEntry():
		tx = core.Entry{
			Date:        strings.TrimSpace(r.Date),
			Kind:        kind,
			Category:    strings.TrimSpace(r.Category),
			Account:     r.Account,
			Amount:      amount,
			Description: strings.TrimSpace(r.Description),
		}
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidKind, r.Type)
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

func rowsToTransactions(rows []Row) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for i, r := range rows {
		tx, err := r.Transaction()
		if err != nil {
			return nil, &RowError{Row: i + 1, Err: err}
		}
		out = append(out, tx)
	}
	return out, nil
}

var errEmptyDocument = errors.New("document contains no transactions")
