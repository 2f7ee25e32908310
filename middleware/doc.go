// Package middleware adapts a goSession.Manager to net/http.
//
// # Server side
//
//   - [WithManager] attaches the manager to every request context.
//   - [RequireSession] rejects requests while no session is authenticated.
//   - [RequireReady] holds back requests until initialization has published.
//
// # Client side
//
//   - [Transport] adds the current access token to outgoing requests.
//
// Decisions come from Manager snapshots only. Nothing here talks to the credential store
// or the identity service.
package middleware
