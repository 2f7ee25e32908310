package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// RequireReady waits for m's first published state before serving, or fails with 503
// when the request context ends first.
func RequireReady(m *goSession.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				http.Error(w, "session manager unavailable", http.StatusServiceUnavailable)
				return
			}
			if err := m.WaitReady(r.Context()); err != nil {
				http.Error(w, "session loading", http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
