package server

import (
	"context"
	"net/http"
	"strings"

	userdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/user/domain"
)

type contextKey int

const actorKey contextKey = iota

// authenticate verifies the bearer access token and loads the current user,
// so handlers see up-to-date affiliation rather than claims frozen at issue
// time.
func (s *Server) authenticate(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
			return
		}
		claims, err := s.credentials.VerifyAccess(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		actor, err := s.directory.GetByID(r.Context(), claims.Subject)
		if err != nil {
			writeError(w, err)
			return
		}
		if actor == nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or expired token"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	})
}

// actorFrom returns the authenticated user placed by authenticate.
func actorFrom(r *http.Request) *userdomain.User {
	actor, _ := r.Context().Value(actorKey).(*userdomain.User)
	return actor
}
