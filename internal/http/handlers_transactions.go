package http

import (
	"net/http"
	"strconv"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

type entryRequest struct {
	Date        string      `json:"date"`
	Type        core.Kind   `json:"type"`
	Category    string      `json:"category"`
	Account     int64       `json:"account"`
	Amount      amountField `json:"amount"`
	Description string      `json:"description"`
}

type transferRequest struct {
	Date          string      `json:"date"`
	OperationType string      `json:"operationType"`
	FromAccount   int64       `json:"fromAccount"`
	ToAccount     int64       `json:"toAccount"`
	Amount        amountField `json:"amount"`
	Description   string      `json:"description"`
}

// handleListTransactions returns the transactions of the requested month,
// newest first. ?all=true returns every transaction.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var txns []core.Transaction
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		txns = s.finance.Transactions(0, 0)
	} else {
		p := s.monthParams(r)
		txns = s.finance.Transactions(p.Month, p.Year)
	}
	NewJSONResponse().Body(core.Transactions(txns)).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}

	entry := core.Entry{
		Date:        req.Date,
		Kind:        req.Type,
		Category:    sanitizeInput(req.Category),
		Account:     req.Account,
		Amount:      amount,
		Description: sanitizeInput(req.Description),
	}
	if entry.Date == "" {
		entry.Date = s.today()
	}
	s.createTransaction(w, r, entry)
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}

	transfer := core.Transfer{
		Date:          req.Date,
		OperationType: sanitizeInput(req.OperationType),
		FromAccount:   req.FromAccount,
		ToAccount:     req.ToAccount,
		Amount:        amount,
		Description:   sanitizeInput(req.Description),
	}
	if transfer.Date == "" {
		transfer.Date = s.today()
	}
	if transfer.OperationType == "" {
		transfer.OperationType = core.DefaultOperationType
	}
	s.createTransaction(w, r, transfer)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, tx core.Transaction) {
	if err := tx.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	stored, err := s.finance.AddTransaction(r.Context(), tx)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+strconv.FormatInt(stored.TxID(), 10)).
		Body(stored).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.finance.DeleteTransaction(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
