// Package local is an in-process identity provider. It issues JWT access tokens through
// token.Manager, hashes passwords with argon2id and keeps refresh grants in memory.
//
// It backs sessionctl's --local mode, the HTTP example and integration tests; nothing is
// persisted across restarts.
package local
