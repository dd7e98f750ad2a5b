package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	KindIncome           Kind = "income"
	KindExpenseNecessity Kind = "expense-necessity"
	KindExpenseExtra     Kind = "expense-extra"
	KindWithdrawal       Kind = "withdrawal"
	KindTransfer         Kind = "transfer"
)

const (
	AccountCurrent    AccountType = "current"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
)

type (
	// Kind discriminates transactions. Only the four entry kinds carry a
	// category and a single account; KindTransfer moves money between two.
	Kind string

	AccountType string

	Account struct {
		ID             int64           `json:"id"`
		Name           string          `json:"name"`
		Type           AccountType     `json:"type"`
		InitialBalance decimal.Decimal `json:"initialBalance"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidKind        = errors.New("invalid transaction type")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyAccountName   = errors.New("empty account name")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrMissingAccount     = errors.New("missing account reference")
	ErrSameAccount        = errors.New("source and destination accounts must differ")
)

var kindLabels = map[Kind]string{
	KindIncome:           "Entrata",
	KindExpenseNecessity: "Necessità",
	KindExpenseExtra:     "Extra",
	KindWithdrawal:       "Prelievo",
	KindTransfer:         "Trasferimento",
}

var accountTypeLabels = map[AccountType]string{
	AccountCurrent:    "Corrente",
	AccountSavings:    "Risparmio",
	AccountInvestment: "Investimento",
}

// EntryKinds lists the kinds that can appear on an Entry, in display order.
func EntryKinds() []Kind {
	return []Kind{KindIncome, KindExpenseNecessity, KindExpenseExtra, KindWithdrawal}
}

// IsEntry reports whether k is one of the four single-account kinds.
func (k Kind) IsEntry() bool {
	switch k {
	case KindIncome, KindExpenseNecessity, KindExpenseExtra, KindWithdrawal:
		return true
	}
	return false
}

// IsExpenseLike is true for everything that is neither income nor a transfer.
// Unknown kinds read back from storage count as expense-like.
func (k Kind) IsExpenseLike() bool {
	return k != KindIncome && k != KindTransfer
}

// Label returns the Italian display label, or the raw kind when unknown.
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

func (t AccountType) IsValid() bool {
	switch t {
	case AccountCurrent, AccountSavings, AccountInvestment:
		return true
	}
	return false
}

func (t AccountType) Label() string {
	if l, ok := accountTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyAccountName
	}
	if len(a.Name) > 100 {
		return errors.New("account name too long (max 100 characters)")
	}
	if !a.Type.IsValid() {
		return ErrInvalidAccountType
	}
	return nil
}

// FindAccount returns the account with the given id.
func FindAccount(accounts []Account, id int64) (Account, bool) {
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}
