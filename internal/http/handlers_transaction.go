package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
	"pennywise/internal/log"
)

// transactionRequest is the body of POST and PUT /api/transactions.
// Amount may be sent as a JSON number or string; its sign is ignored.
type transactionRequest struct {
	Date        core.Date       `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	t, err := core.ParseTxType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Date:        req.Date,
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
		Type:        t,
		Amount:      req.Amount,
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpList)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), owner(r), f)
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpList)
		return
	}
	NewJSONResponse().Body(txs).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpRead)
		return
	}
	tx, err := s.svc.Transactions.Get(r.Context(), owner(r), id)
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpRead)
		return
	}
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpCreate)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpCreate)
		return
	}

	saved, err := s.svc.Transactions.Create(r.Context(), owner(r), tx)
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpCreate)
		return
	}
	s.logger.LogTransactionSaved(r.Context(), log.OpCreate, owner(r), saved.ID,
		saved.Type.String(), saved.Category, saved.Amount.String())
	Created(saved).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpUpdate)
		return
	}
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpUpdate)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpUpdate)
		return
	}

	saved, err := s.svc.Transactions.Update(r.Context(), owner(r), id, tx)
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpUpdate)
		return
	}
	s.logger.LogTransactionSaved(r.Context(), log.OpUpdate, owner(r), saved.ID,
		saved.Type.String(), saved.Category, saved.Amount.String())
	NewJSONResponse().Body(saved).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpDelete)
		return
	}
	if err := s.svc.Transactions.Delete(r.Context(), owner(r), id); err != nil {
		s.writeError(w, r, err, log.ComponentTransaction, log.OpDelete)
		return
	}
	NoContent().Write(w)
}
