package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
	"pennywise/internal/log"
)

// budgetRequest is the body of POST and PUT /api/budgets. Month is YYYY-MM.
type budgetRequest struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Month    string          `json:"month"`
}

func (req budgetRequest) toBudget() (core.Budget, error) {
	month, err := core.ParseMonth(req.Month)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		Category: sanitizeInput(req.Category),
		Amount:   req.Amount,
		Month:    month,
	}, nil
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := QueryMonth(r.URL.Query(), "month")
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpList)
		return
	}

	var views []core.BudgetView
	if month.IsZero() {
		views, err = s.svc.Budgets.List(r.Context(), owner(r))
	} else {
		views, err = s.svc.Budgets.ListByMonth(r.Context(), owner(r), month)
	}
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpList)
		return
	}
	NewJSONResponse().Body(views).Write(w)
}

func (s *Server) handleBudgetByCategoryAndMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := sanitizeInput(q.Get("category"))
	if category == "" {
		s.writeError(w, r, badRequest("category is required"), log.ComponentBudget, log.OpRead)
		return
	}
	if strings.TrimSpace(q.Get("month")) == "" {
		s.writeError(w, r, badRequest("month is required"), log.ComponentBudget, log.OpRead)
		return
	}
	month, err := QueryMonth(q, "month")
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpRead)
		return
	}

	view, err := s.svc.Budgets.GetByCategoryAndMonth(r.Context(), owner(r), category, month)
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpRead)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpRead)
		return
	}
	view, err := s.svc.Budgets.Get(r.Context(), owner(r), id)
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpRead)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpCreate)
		return
	}
	b, err := req.toBudget()
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpCreate)
		return
	}
	view, err := s.svc.Budgets.Create(r.Context(), owner(r), b)
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpCreate)
		return
	}
	s.logger.LogBudgetSaved(r.Context(), log.OpCreate, owner(r), view.ID, view.Category, view.Month.String())
	Created(view).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpUpdate)
		return
	}
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpUpdate)
		return
	}
	b, err := req.toBudget()
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpUpdate)
		return
	}
	view, err := s.svc.Budgets.Update(r.Context(), owner(r), id, b)
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpUpdate)
		return
	}
	s.logger.LogBudgetSaved(r.Context(), log.OpUpdate, owner(r), view.ID, view.Category, view.Month.String())
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpDelete)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), owner(r), id); err != nil {
		s.writeError(w, r, err, log.ComponentBudget, log.OpDelete)
		return
	}
	NoContent().Write(w)
}
