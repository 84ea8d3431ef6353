package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const userIdKey contextKey = "userId"

// requireUser resolves the bearer token to a verified user id and threads
// it into the request context. Handlers behind it read the id back with
// userFrom; nothing else is looked up implicitly.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}
		userId, ok := s.sessions.Resolve(token)
		if !ok {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired session"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIdKey, userId)))
	})
}

func userFrom(r *http.Request) (uuid.UUID, bool) {
	userId, ok := r.Context().Value(userIdKey).(uuid.UUID)
	return userId, ok
}
