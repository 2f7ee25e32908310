// Package goSession manages the lifecycle of a client's authenticated session: it restores a
// cached session record at startup, reconciles it with the remote identity service, applies
// the service's change notifications in order, and performs sign-out.
//
// The package is designed for long-lived client processes: Manager methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder], [Config], and value types
// ([Snapshot], [Notification], [MetricsSnapshot]). Credential storage lives in securestore,
// the session payload model in record, and identity clients under identity/. Internal
// coordination (the writer mailbox, audit dispatch) lives under internal/ and is never
// exported.
//
// # What this package must NOT do
//
//   - Return errors from initialization or notification handling to the presentation layer.
//   - Mutate authentication state from any goroutine other than the Manager's writer.
//   - Interpret the session payload beyond its expiry and display identity.
//   - Import any sub-package that re-imports goSession (no import cycles).
//
// # Consistency contract
//
// Every transition publishes one whole [Snapshot]. Snapshot is a single atomic load and never
// blocks on the writer. Initialization publishes exactly once; notifications that arrive
// while it runs are applied afterwards, in delivery order.
package goSession
