package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"pmtrack/internal/core"
)

// HeaderUserID carries the id of the user authenticated upstream.
const HeaderUserID = "X-User-ID"

type userKey struct{}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// identify resolves X-User-ID to a user and stores it in the request context.
// Requests without a known user are rejected with 401.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
		id, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || id <= 0 {
			UnauthorizedError("missing or invalid " + HeaderUserID).Write(w)
			return
		}
		user, err := s.backend.Store.FindUser(r.Context(), id)
		if err != nil {
			FromError(err).Write(w)
			return
		}
		if user == nil {
			UnauthorizedError("unknown user").Write(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, *user)))
	})
}

// currentUser returns the user stored by identify.
func currentUser(ctx context.Context) core.User {
	u, _ := ctx.Value(userKey{}).(core.User)
	return u
}
