package http

import (
	"context"
	"net/http"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

type contextKey int

const (
	userIDKey contextKey = iota
	usernameKey
)

// requireAuth admits requests carrying a valid bearer token and stores the
// token's user in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			UnauthorizedError("missing bearer token").Write(w)
			return
		}

		claims, err := s.svc.Auth.ParseToken(token)
		if err != nil {
			UnauthorizedError("invalid or expired token").Write(w)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, usernameKey, claims.Username)
		ctx = log.WithLogger(ctx, log.FromContext(ctx).With(log.FieldUserID, claims.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userID returns the authenticated user. Only valid behind requireAuth.
func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err, log.ComponentAuth, log.OpRegister)
		return
	}

	user, token, err := s.svc.Auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.handleError(w, r, err, log.ComponentAuth, log.OpRegister)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User registered",
		log.FieldUserID, user.ID, log.FieldOperation, log.OpRegister)

	NewJSONResponse().Status(http.StatusCreated).Data(toAuthResponse(user, token)).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err, log.ComponentAuth, log.OpLogin)
		return
	}

	user, token, err := s.svc.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Login failed",
			log.FieldOperation, log.OpLogin,
			"error_type", log.ErrorTypeAuth)
		s.handleError(w, r, err, log.ComponentAuth, log.OpLogin)
		return
	}

	NewJSONResponse().Data(toAuthResponse(user, token)).Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	username, _ := r.Context().Value(usernameKey).(string)
	NewJSONResponse().Data(userResponse{ID: userID(r), Username: username}).Write(w)
}

func toAuthResponse(u core.User, token string) authResponse {
	return authResponse{
		User:  userResponse{ID: u.ID, Username: u.Username},
		Token: token,
	}
}
