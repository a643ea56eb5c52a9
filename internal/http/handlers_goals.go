package http

import (
	"net/http"

	"expensetracker/internal/log"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.Goals.List(r.Context(), userID(r))
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpList)
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}
	NewJSONResponse().Data(out).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpCreate)
		return
	}
	g, err := req.toGoal()
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpCreate)
		return
	}

	created, err := s.svc.Goals.Create(r.Context(), userID(r), g)
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpCreate)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(toGoalResponse(created)).Write(w)
}

// handleGetGoal returns the goal with its saved and remaining amounts.
func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpRead)
		return
	}
	progress, err := s.svc.Goals.Get(r.Context(), userID(r), id)
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpRead)
		return
	}
	NewJSONResponse().Data(toGoalProgressResponse(progress)).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpUpdate)
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpUpdate)
		return
	}
	g, err := req.toGoal()
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpUpdate)
		return
	}
	g.ID = id

	updated, err := s.svc.Goals.Update(r.Context(), userID(r), g)
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpUpdate)
		return
	}
	NewJSONResponse().Data(toGoalResponse(updated)).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpDelete)
		return
	}
	if err := s.svc.Goals.Delete(r.Context(), userID(r), id); err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpDelete)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleGoalContributions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpList)
		return
	}
	entries, err := s.svc.Goals.Contributions(r.Context(), userID(r), id)
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpList)
		return
	}
	NewJSONResponse().Data(toEntryResponses(entries)).Write(w)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpCreate)
		return
	}
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpCreate)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpCreate)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpCreate)
		return
	}
	dir, err := parseOptionalDirection(req.Direction)
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpCreate)
		return
	}

	entry, err := s.svc.Goals.Contribute(r.Context(), userID(r), id, amount, date, dir)
	if err != nil {
		s.handleError(w, r, err, log.ComponentGoal, log.OpCreate)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(toEntryResponse(entry)).Write(w)
}
