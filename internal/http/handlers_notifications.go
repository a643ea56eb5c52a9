package http

import (
	"net/http"

	"expensetracker/internal/log"
)

const componentNotifications = "notifications"

// handleListNotifications returns the inbox, newest first.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Notifications.List(r.Context(), userID(r))
	if err != nil {
		s.handleError(w, r, err, componentNotifications, log.OpList)
		return
	}
	NewJSONResponse().Data(toNotificationResponses(list)).Write(w)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Notifications.UnreadCount(r.Context(), userID(r))
	if err != nil {
		s.handleError(w, r, err, componentNotifications, log.OpRead)
		return
	}
	NewJSONResponse().Data(countResponse{Count: int64(n)}).Write(w)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Notifications.MarkAllRead(r.Context(), userID(r))
	if err != nil {
		s.handleError(w, r, err, componentNotifications, log.OpUpdate)
		return
	}
	NewJSONResponse().Data(countResponse{Count: n}).Write(w)
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Notifications.Clear(r.Context(), userID(r))
	if err != nil {
		s.handleError(w, r, err, componentNotifications, log.OpDelete)
		return
	}
	NewJSONResponse().Data(countResponse{Count: n}).Write(w)
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.handleError(w, r, err, componentNotifications, log.OpDelete)
		return
	}
	if err := s.svc.Notifications.Delete(r.Context(), userID(r), id); err != nil {
		s.handleError(w, r, err, componentNotifications, log.OpDelete)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
