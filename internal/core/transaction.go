package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Transaction is either an Entry or a Transfer.
type Transaction interface {
	TxID() int64
	TxDate() string
	TxKind() Kind
	TxAmount() decimal.Decimal
	Validate() error

	sealed()
}

// Entry is an income, expense or withdrawal booked on a single account.
type Entry struct {
	ID          int64
	Date        string
	Kind        Kind
	Category    string
	Account     int64
	Amount      decimal.Decimal
	Description string
}

// Transfer moves Amount from one account to another.
type Transfer struct {
	ID            int64
	Date          string
	OperationType string
	FromAccount   int64
	ToAccount     int64
	Amount        decimal.Decimal
	Description   string
}

// DefaultOperationType is the label given to transfers created without one.
const DefaultOperationType = "Trasferimento"

var (
	_ Transaction = Entry{}
	_ Transaction = Transfer{}
)

func (e Entry) TxID() int64               { return e.ID }
func (e Entry) TxDate() string            { return e.Date }
func (e Entry) TxKind() Kind              { return e.Kind }
func (e Entry) TxAmount() decimal.Decimal { return e.Amount }
func (Entry) sealed()                     {}

func (t Transfer) TxID() int64               { return t.ID }
func (t Transfer) TxDate() string            { return t.Date }
func (Transfer) TxKind() Kind                { return KindTransfer }
func (t Transfer) TxAmount() decimal.Decimal { return t.Amount }
func (Transfer) sealed()                     {}

func (e Entry) Validate() error {
	if !e.Kind.IsEntry() {
		return ErrInvalidKind
	}
	if _, ok := ParseDate(e.Date); !ok {
		return ErrInvalidDate
	}
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.Account == 0 {
		return ErrMissingAccount
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (t Transfer) Validate() error {
	if _, ok := ParseDate(t.Date); !ok {
		return ErrInvalidDate
	}
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if t.FromAccount == 0 || t.ToAccount == 0 {
		return ErrMissingAccount
	}
	if t.FromAccount == t.ToAccount {
		return ErrSameAccount
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func validateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// References reports whether tx books anything on the account.
func References(tx Transaction, accountID int64) bool {
	switch t := tx.(type) {
	case Entry:
		return t.Account == accountID
	case Transfer:
		return t.FromAccount == accountID || t.ToAccount == accountID
	}
	return false
}

// WithID returns a copy of tx carrying the given id.
func WithID(tx Transaction, id int64) Transaction {
	switch t := tx.(type) {
	case Entry:
		t.ID = id
		return t
	case Transfer:
		t.ID = id
		return t
	}
	return tx
}

// wireTransaction is the persisted JSON layout shared by both variants.
type wireTransaction struct {
	ID            int64           `json:"id"`
	Date          string          `json:"date"`
	Type          Kind            `json:"type"`
	Category      string          `json:"category,omitempty"`
	Account       int64           `json:"account,omitempty"`
	OperationType string          `json:"operationType,omitempty"`
	FromAccount   int64           `json:"fromAccount,omitempty"`
	ToAccount     int64           `json:"toAccount,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTransaction{
		ID:          e.ID,
		Date:        e.Date,
		Type:        e.Kind,
		Category:    e.Category,
		Account:     e.Account,
		Amount:      e.Amount,
		Description: e.Description,
	})
}

func (t Transfer) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTransaction{
		ID:            t.ID,
		Date:          t.Date,
		Type:          KindTransfer,
		OperationType: t.OperationType,
		FromAccount:   t.FromAccount,
		ToAccount:     t.ToAccount,
		Amount:        t.Amount,
		Description:   t.Description,
	})
}

// DecodeTransaction parses one transaction in its wire form. Unknown
// non-transfer types decode as an Entry so stored data is never dropped.
func DecodeTransaction(data []byte) (Transaction, error) {
	var w wireTransaction
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if w.Type == KindTransfer {
		return Transfer{
			ID:            w.ID,
			Date:          w.Date,
			OperationType: w.OperationType,
			FromAccount:   w.FromAccount,
			ToAccount:     w.ToAccount,
			Amount:        w.Amount,
			Description:   w.Description,
		}, nil
	}
	return Entry{
		ID:          w.ID,
		Date:        w.Date,
		Kind:        w.Type,
		Category:    w.Category,
		Account:     w.Account,
		Amount:      w.Amount,
		Description: w.Description,
	}, nil
}

// Transactions is an ordered collection with JSON support for the union.
type Transactions []Transaction

func (ts Transactions) MarshalJSON() ([]byte, error) {
	if ts == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Transaction(ts))
}

func (ts *Transactions) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*ts = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Transactions, 0, len(raw))
	for i, r := range raw {
		tx, err := DecodeTransaction(r)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		out = append(out, tx)
	}
	*ts = out
	return nil
}
