package http

import (
	"net/http"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

const componentStats = "stats"

func (s *Server) handleTopExpenses(w http.ResponseWriter, r *http.Request) {
	top, err := s.svc.Stats.TopExpenses(r.Context(), userID(r))
	if err != nil {
		s.handleError(w, r, err, componentStats, log.OpRead)
		return
	}
	NewJSONResponse().Data(toEntryResponses(top)).Write(w)
}

// handleDailyTotals groups one direction by date; ?direction defaults to expense.
func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	dir := core.Expense
	if raw := strings.TrimSpace(r.URL.Query().Get("direction")); raw != "" {
		parsed, err := core.ParseDirection(raw)
		if err != nil {
			s.handleError(w, r, err, componentStats, log.OpRead)
			return
		}
		dir = parsed
	}

	totals, err := s.svc.Stats.DailyTotals(r.Context(), userID(r), dir)
	if err != nil {
		s.handleError(w, r, err, componentStats, log.OpRead)
		return
	}

	out := make([]dailyTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, dailyTotalResponse{
			money:     toMoney(t.Total),
			Date:      t.Date.Format(isoDate),
			Direction: string(t.Direction),
		})
	}
	NewJSONResponse().Data(out).Write(w)
}

// handleMonthOverview summarizes ?year=&month=, defaulting to the current month.
func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.today())
	if err != nil {
		s.handleError(w, r, err, componentStats, log.OpRead)
		return
	}

	ov, err := s.svc.Stats.MonthOverview(r.Context(), userID(r), params.Year, params.Month)
	if err != nil {
		s.handleError(w, r, err, componentStats, log.OpRead)
		return
	}

	NewJSONResponse().Data(monthOverviewResponse{
		Year:       ov.Year,
		Month:      ov.Month,
		Expense:    toMoney(ov.Expense),
		Income:     toMoney(ov.Income),
		Balance:    toMoney(ov.Balance),
		ByCategory: toCategoryAmounts(ov.ByCategory),
	}).Write(w)
}
