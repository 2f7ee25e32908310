// Package gotrue is a client for GoTrue-compatible auth REST APIs (Supabase Auth and
// self-hosted GoTrue).
//
// The client implements goSession.IdentityService and goSession.Authenticator. Response
// bodies of the token endpoints are kept byte for byte as the session record, so what the
// session manager persists is exactly what the server sent.
//
// Start Run in its own goroutine to refresh sessions ahead of expiry.
package gotrue
