package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// Transport sets "Authorization: Bearer <access token>" from the manager's current
// snapshot on requests that carry no Authorization header. Without a session the request
// is sent unchanged.
type Transport struct {
	Manager *goSession.Manager
	// Base defaults to http.DefaultTransport.
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Manager == nil || r.Header.Get("Authorization") != "" {
		return base.RoundTrip(r)
	}

	snap := t.Manager.Snapshot()
	if !snap.Authenticated() || snap.Session.AccessToken() == "" {
		return base.RoundTrip(r)
	}

	out := r.Clone(r.Context())
	out.Header.Set("Authorization", "Bearer "+snap.Session.AccessToken())
	return base.RoundTrip(out)
}
