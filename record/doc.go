// Package record models the session record issued by the identity service.
//
// The record is opaque: [Session] keeps the exact bytes it was parsed from and only extracts
// the fields the lifecycle manager and identity clients need (expiry, identity, tokens).
// Bytes returned by [Session.Bytes] are identical to the bytes given to [Parse], so a record
// survives any number of store round trips unchanged.
//
// # What this package must NOT do
//
//   - Import goSession, securestore, or identity (no upward imports).
//   - Re-encode payloads or normalize JSON.
//   - Verify token signatures.
package record
