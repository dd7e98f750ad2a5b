package http

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"bilancio/internal/analytics"
	"bilancio/internal/core"
	"bilancio/internal/log"
)

type accountRequest struct {
	Name           string           `json:"name"`
	Type           core.AccountType `json:"type"`
	InitialBalance decimal.Decimal  `json:"initialBalance"`
}

// handleListAccounts returns every account with its current balance.
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	snap := s.finance.Snapshot()
	NewJSONResponse().Body(analytics.AccountBalances(snap.Accounts, snap.Transactions)).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}

	acc := core.Account{
		Name:           sanitizeInput(req.Name),
		Type:           req.Type,
		InitialBalance: req.InitialBalance.Round(2),
	}
	if err := acc.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.finance.AddAccount(r.Context(), acc)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/accounts/"+strconv.FormatInt(created.ID, 10)).
		Body(created).
		Write(w)
}

// handleDeleteAccount removes the account and the transactions booked on it.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	removed, err := s.finance.DeleteAccount(r.Context(), id)
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Body(map[string]int{"removedTransactions": removed}).Write(w)
}
