package http

import (
	"net/http"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// handleRunRecurring evaluates the caller's recurring rules for ?date=yyyy-mm-dd,
// or for today in the server's location.
func (s *Server) handleRunRecurring(w http.ResponseWriter, r *http.Request) {
	today := core.DateOf(s.today())
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := parseOptionalDate(raw)
		if err != nil {
			s.handleError(w, r, err, log.ComponentRecurring, log.OpProcess)
			return
		}
		today = d
	}

	res, err := s.svc.Recurring.ProcessUser(r.Context(), userID(r), today)
	if err != nil {
		s.handleError(w, r, err, log.ComponentRecurring, log.OpProcess)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Recurring rules processed on demand",
		log.FieldDate, today.String(),
		"checked", res.Checked,
		"fired", res.Fired,
		"failed", res.Failed)

	NewJSONResponse().Data(processResultResponse{
		Date:    today.Format(isoDate),
		Checked: res.Checked,
		Fired:   res.Fired,
		Failed:  res.Failed,
	}).Write(w)
}
