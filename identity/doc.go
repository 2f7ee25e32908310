// Package identity holds the pieces shared by identity service clients: ordered
// notification fan-out to subscribers.
//
// Concrete clients live in sub-packages: gotrue talks to a hosted GoTrue-compatible auth
// REST API, local is an in-process provider for demos and tests. Both satisfy
// goSession.IdentityService and goSession.Authenticator.
package identity
