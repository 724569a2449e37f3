package middleware

import (
	"net/http"

	"github.com/dukerupert/fitletter/internal/auth"
)

// RequireAuth validates the session cookie and populates AuthContext.
// Unauthenticated browsers are redirected to the login path; JSON clients
// get a 401.
func RequireAuth(m *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac := m.RequireAuth(w, r)
			if ac == nil {
				return
			}
			ctx := auth.WithAuth(r.Context(), *ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
