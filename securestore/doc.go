// Package securestore provides the on-device credential store used by the session lifecycle
// manager: a small key/value [Backend] contract, several backends, and an [Encrypted] wrapper
// that seals every value at rest.
//
// # Backends
//
//   - [Memory]: process-local, for tests and ephemeral clients.
//   - [File]: one file per key, written atomically with 0600 permissions.
//   - [Redis]: device-scoped keys in Redis, for clients that run next to a Redis instance.
//   - [SQLite]: a single kv table in an embedded SQLite database.
//
// # Envelope
//
// [Sealer] encrypts values with XChaCha20-Poly1305 under a key derived with Argon2id from a
// device secret. The sealed layout is versioned: a leading version byte, the 24-byte nonce,
// then ciphertext and tag. The storage key is bound as associated data, so a value copied
// under another key fails to open.
//
// # What this package must NOT do
//
//   - Interpret stored values (they are opaque bytes).
//   - Import goSession or record.
package securestore
