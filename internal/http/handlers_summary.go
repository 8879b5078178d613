package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.reports.Dashboard(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardJSON(d))
}

// handleMonthly defaults year and month to the current month.
func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	q := newQueryParams(r)
	year := q.integer("year", now.Year())
	month := q.integer("month", int(now.Month()))
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}
	m, err := s.reports.MonthlySummary(r.Context(), ownerFrom(r.Context()), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlyJSON(m))
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	dir := q.direction("type")
	from := q.date("from")
	to := q.date("to")
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}
	items, err := s.reports.CategoryBreakdown(r.Context(), ownerFrom(r.Context()), dir, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(items, toCategoryAmountJSON))
}

// handleRangeSummary defaults to expenses in the current month.
func (s *Server) handleRangeSummary(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	dir := q.direction("type")
	from := q.date("from")
	to := q.date("to")
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}
	sum, err := s.reports.RangeSummary(r.Context(), ownerFrom(r.Context()), dir, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRangeSummaryJSON(sum))
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	months := q.integer("months", 0)
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}
	points, err := s.reports.SpendingTrend(r.Context(), ownerFrom(r.Context()), months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(points, toTrendPointJSON))
}

type setBudgetRequest struct {
	CategoryID int64             `json:"category_id"`
	Amount     core.Money        `json:"amount"`
	Period     core.BudgetPeriod `json:"period"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req setBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.reports.SetBudget(r.Context(), ownerFrom(r.Context()), req.CategoryID, req.Amount, req.Period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetJSON(b))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.reports.BudgetStatuses(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(statuses, toBudgetStatusJSON))
}
