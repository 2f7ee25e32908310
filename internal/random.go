package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// SessionID identifies one refresh grant.
type SessionID [16]byte

const (
	refreshSecretSize   = 32
	refreshTokenRawSize = len(SessionID{}) + refreshSecretSize
)

// RefreshSecret is the random half of a refresh token. Only its hash is kept server side.
type RefreshSecret [refreshSecretSize]byte

func NewSessionID() (SessionID, error) {
	var sid SessionID
	_, err := rand.Read(sid[:])
	return sid, err
}

func (s SessionID) String() string {
	return base64.RawURLEncoding.EncodeToString(s[:])
}

func NewRefreshSecret() (RefreshSecret, error) {
	var secret RefreshSecret
	_, err := rand.Read(secret[:])
	return secret, err
}

func (s RefreshSecret) Hash() [32]byte {
	return sha256.Sum256(s[:])
}

// EncodeRefreshToken packs sid and secret into one base64url token.
func EncodeRefreshToken(sid SessionID, secret RefreshSecret) string {
	var raw [refreshTokenRawSize]byte
	copy(raw[:len(sid)], sid[:])
	copy(raw[len(sid):], secret[:])
	return base64.RawURLEncoding.EncodeToString(raw[:])
}

// DecodeRefreshToken splits a token produced by EncodeRefreshToken.
func DecodeRefreshToken(token string) (SessionID, RefreshSecret, error) {
	var (
		sid    SessionID
		secret RefreshSecret
	)
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return sid, secret, err
	}
	if len(raw) != refreshTokenRawSize {
		return sid, secret, errors.New("invalid refresh token size")
	}
	copy(sid[:], raw[:len(sid)])
	copy(secret[:], raw[len(sid):])
	return sid, secret, nil
}
