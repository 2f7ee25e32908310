// Package token issues signed access tokens for the in-process identity provider and reads
// the expiry claim of tokens issued by a remote identity service.
//
// # Architecture boundaries
//
// Issue and Parse verify signatures with keys the caller owns. ExpiryUnverified never
// verifies anything: it only extracts the exp claim so a session record without an explicit
// expires_at field still carries an expiry. Signature verification of remote tokens is the
// remote service's concern.
package token
