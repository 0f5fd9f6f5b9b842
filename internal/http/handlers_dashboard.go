package http

import (
	"net/http"

	"pennywise/internal/log"
)

// handleDashboardSummary serves GET /api/dashboard/summary?upToDate=YYYY-MM-DD.
// Without upToDate the summary is computed as of today.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	asOf, err := QueryDate(r.URL.Query(), "upToDate")
	if err != nil {
		s.writeError(w, r, err, log.ComponentDashboard, log.OpRead)
		return
	}
	summary, err := s.svc.Dashboard.Summary(r.Context(), owner(r), asOf)
	if err != nil {
		s.writeError(w, r, err, log.ComponentDashboard, log.OpRead)
		return
	}
	NewJSONResponse().Body(summary).Write(w)
}

// handleExpenseBreakdown serves GET /api/dashboard/expense-breakdown?month=YYYY-MM,
// defaulting to the current month.
func (s *Server) handleExpenseBreakdown(w http.ResponseWriter, r *http.Request) {
	month, err := QueryMonth(r.URL.Query(), "month")
	if err != nil {
		s.writeError(w, r, err, log.ComponentDashboard, log.OpRead)
		return
	}
	if month.IsZero() {
		month = s.svc.Dashboard.Today().MonthStart()
	}

	breakdown, err := s.svc.Dashboard.ExpenseBreakdown(r.Context(), owner(r), month, month.MonthEnd())
	if err != nil {
		s.writeError(w, r, err, log.ComponentDashboard, log.OpRead)
		return
	}
	NewJSONResponse().Body(breakdown).Write(w)
}

func (s *Server) handleSpendingTrends(w http.ResponseWriter, r *http.Request) {
	months, err := QueryInt(r.URL.Query(), "months", 6)
	if err != nil {
		s.writeError(w, r, err, log.ComponentDashboard, log.OpRead)
		return
	}
	trends, err := s.svc.Dashboard.SpendingTrends(r.Context(), owner(r), months)
	if err != nil {
		s.writeError(w, r, err, log.ComponentDashboard, log.OpRead)
		return
	}
	NewJSONResponse().Body(trends).Write(w)
}

func (s *Server) handleCurrentMonthOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.svc.Dashboard.CurrentMonthOverview(r.Context(), owner(r))
	if err != nil {
		s.writeError(w, r, err, log.ComponentDashboard, log.OpRead)
		return
	}
	NewJSONResponse().Body(overview).Write(w)
}

// handleAdvice serves POST /api/dashboard/ai-advice. Every advisory outcome,
// including refusals, is a 200 whose status field tells them apart.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	id := owner(r)
	result, err := s.svc.Advisor.RequestAdvice(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, log.ComponentAdvisory, log.OpAdvise)
		return
	}
	s.logger.LogAdvice(r.Context(), id, string(result.Status), result.GenerationsLeft)
	NewJSONResponse().Body(result).Write(w)
}
