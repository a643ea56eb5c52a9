package http

import (
	"net/http"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Categories.List(r.Context(), userID(r))
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpList)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	NewJSONResponse().Data(out).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpCreate)
		return
	}

	c := core.Category{Name: sanitizeInput(req.Name)}
	if req.Rule != nil {
		rule, err := req.Rule.toRule()
		if err != nil {
			s.handleError(w, r, err, log.ComponentCategory, log.OpCreate)
			return
		}
		c.Rule = rule
	}

	created, err := s.svc.Categories.Create(r.Context(), userID(r), c)
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpCreate)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(toCategoryResponse(created)).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpRead)
		return
	}
	c, err := s.svc.Categories.Get(r.Context(), userID(r), id)
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpRead)
		return
	}
	NewJSONResponse().Data(toCategoryResponse(c)).Write(w)
}

// handleUpdateCategory renames a category. The rule is replaced only when the
// body carries one.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpUpdate)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpUpdate)
		return
	}

	uid := userID(r)
	c, err := s.svc.Categories.Get(r.Context(), uid, id)
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpUpdate)
		return
	}
	c.Name = sanitizeInput(req.Name)
	if req.Rule != nil {
		rule, err := req.Rule.toRule()
		if err != nil {
			s.handleError(w, r, err, log.ComponentCategory, log.OpUpdate)
			return
		}
		c.Rule = rule
	}

	updated, err := s.svc.Categories.Update(r.Context(), uid, c)
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpUpdate)
		return
	}
	NewJSONResponse().Data(toCategoryResponse(updated)).Write(w)
}

func (s *Server) handleUpdateCategoryRule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpUpdate)
		return
	}
	var req ruleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpUpdate)
		return
	}
	rule, err := req.toRule()
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpUpdate)
		return
	}

	c, err := s.svc.Categories.UpdateRule(r.Context(), userID(r), id, rule)
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpUpdate)
		return
	}
	NewJSONResponse().Data(toCategoryResponse(c)).Write(w)
}

func (s *Server) handleSetCategoryAuto(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpUpdate)
		return
	}
	var req autoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpUpdate)
		return
	}

	c, err := s.svc.Categories.SetAutoEnabled(r.Context(), userID(r), id, req.Enabled)
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpUpdate)
		return
	}
	NewJSONResponse().Data(toCategoryResponse(c)).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpDelete)
		return
	}
	if err := s.svc.Categories.Delete(r.Context(), userID(r), id); err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpDelete)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleCategoryTotals sums every category, optionally for ?month=MM/yyyy.
func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.svc.Categories.Totals(r.Context(), userID(r), r.URL.Query().Get("month"))
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpList)
		return
	}
	NewJSONResponse().Data(toCategoryAmounts(totals)).Write(w)
}

func (s *Server) handleCategoryEntries(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpList)
		return
	}
	entries, err := s.svc.Categories.Entries(r.Context(), userID(r), id, r.URL.Query().Get("month"))
	if err != nil {
		s.handleError(w, r, err, log.ComponentCategory, log.OpList)
		return
	}
	NewJSONResponse().Data(toEntryResponses(entries)).Write(w)
}
