package http

import (
	"net/http"
	"sync/atomic"

	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	categoryID, err := parseOptionalIDQuery(query, "category_id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpList)
		return
	}
	goalID, err := parseOptionalIDQuery(query, "goal_id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpList)
		return
	}

	entries, err := s.svc.Ledger.ListEntries(r.Context(), userID(r), services.EntryQuery{
		Direction:  query.Get("direction"),
		Range:      services.DateRange(query.Get("range")),
		CategoryID: categoryID,
		GoalID:     goalID,
		MonthKey:   query.Get("month"),
	})
	if err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpList)
		return
	}

	NewJSONResponse().Data(toEntryResponses(entries)).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpCreate)
		return
	}
	entry, err := req.toEntry()
	if err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpCreate)
		return
	}

	uid := userID(r)
	saved, err := s.svc.Ledger.CreateEntry(r.Context(), uid, entry)
	if err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpCreate)
		return
	}

	atomic.AddInt64(&s.appMetrics.entriesCreated, 1)
	log.NewStructuredLogger(log.FromContext(r.Context())).LogLedgerEntryCreated(r.Context(),
		uid, saved.ID, saved.Title, saved.Amount.Cents, string(saved.Direction), saved.CategoryID, saved.GoalID)

	NewJSONResponse().Status(http.StatusCreated).Data(toEntryResponse(saved)).Write(w)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpRead)
		return
	}
	entry, err := s.svc.Ledger.GetEntry(r.Context(), userID(r), id)
	if err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpRead)
		return
	}
	NewJSONResponse().Data(toEntryResponse(entry)).Write(w)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpUpdate)
		return
	}
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpUpdate)
		return
	}
	entry, err := req.toEntry()
	if err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpUpdate)
		return
	}
	entry.ID = id

	updated, err := s.svc.Ledger.UpdateEntry(r.Context(), userID(r), entry)
	if err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpUpdate)
		return
	}
	NewJSONResponse().Data(toEntryResponse(updated)).Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpDelete)
		return
	}
	if err := s.svc.Ledger.DeleteEntry(r.Context(), userID(r), id); err != nil {
		s.handleError(w, r, err, log.ComponentLedger, log.OpDelete)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
