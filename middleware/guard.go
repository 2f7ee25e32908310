package middleware

import (
	"context"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

type snapshotContextKey struct{}

// SnapshotFromContext returns the snapshot RequireSession admitted the request with.
func SnapshotFromContext(ctx context.Context) (goSession.Snapshot, bool) {
	s, ok := ctx.Value(snapshotContextKey{}).(goSession.Snapshot)
	return s, ok
}

// WithManager attaches m to each request context; see goSession.FromContext.
func WithManager(m *goSession.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(goSession.NewContext(r.Context(), m)))
		})
	}
}

// RequireSession admits requests only while m publishes an authenticated snapshot. A
// manager still loading answers 503 with Retry-After so clients can retry.
func RequireSession(m *goSession.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			snap := m.Snapshot()
			switch {
			case snap.State == goSession.StateUninitialized || (snap.Loading && !snap.Authenticated()):
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session loading", http.StatusServiceUnavailable)
				return
			case !snap.Authenticated():
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), snapshotContextKey{}, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
