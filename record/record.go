package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/MrEthical07/goSession/token"
)

// ErrMalformed is returned when a payload is not a JSON session object.
var ErrMalformed = errors.New("malformed session record")

// Session is an opaque session record with its expiry extracted.
type Session struct {
	raw []byte

	ExpiresAt time.Time
	Identity  string

	accessToken  string
	refreshToken string
}

type envelope struct {
	ExpiresAt    json.Number     `json:"expires_at"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         json.RawMessage `json:"user"`
}

type principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Parse decodes data into a Session. The payload must be a JSON object; unknown fields are
// kept verbatim in the raw bytes.
//
// Expiry comes from expires_at (unix seconds) or, when that is absent, from the exp claim of
// access_token. A record with neither has a zero ExpiresAt and is always expired.
func Parse(data []byte) (*Session, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformed
	}

	var env envelope
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformed)
	}

	s := &Session{
		raw:          append([]byte(nil), data...),
		accessToken:  env.AccessToken,
		refreshToken: env.RefreshToken,
	}

	if env.ExpiresAt != "" {
		exp, err := unixNumber(env.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("%w: expires_at: %v", ErrMalformed, err)
		}
		s.ExpiresAt = exp
	} else if env.AccessToken != "" {
		if exp, err := token.ExpiryUnverified(env.AccessToken); err == nil {
			s.ExpiresAt = exp
		}
	}

	var user principal
	if len(env.User) > 0 && json.Unmarshal(env.User, &user) == nil {
		switch {
		case user.Email != "":
			s.Identity = user.Email
		case user.ID != "":
			s.Identity = user.ID
		}
	}

	return s, nil
}

func unixNumber(n json.Number) (time.Time, error) {
	if i, err := n.Int64(); err == nil {
		return time.Unix(i, 0), nil
	}
	f, err := n.Float64()
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64/2 || f < math.MinInt64/2 {
		return time.Time{}, errors.New("out of range")
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)), nil
}

// Bytes returns a copy of the payload exactly as parsed.
func (s *Session) Bytes() []byte {
	if s == nil {
		return nil
	}
	return append([]byte(nil), s.raw...)
}

// Expired reports whether the record is invalid at now. A zero expiry is always expired.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return true
	}
	return !s.ExpiresAt.After(now)
}

// Equal reports whether both records carry the same payload bytes.
func (s *Session) Equal(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	return bytes.Equal(s.raw, other.raw)
}

// AccessToken returns the access_token field, if any.
func (s *Session) AccessToken() string {
	if s == nil {
		return ""
	}
	return s.accessToken
}

// RefreshToken returns the refresh_token field, if any.
func (s *Session) RefreshToken() string {
	if s == nil {
		return ""
	}
	return s.refreshToken
}

// String is safe for logs: it never includes tokens.
func (s *Session) String() string {
	if s == nil {
		return "<nil session>"
	}
	return fmt.Sprintf("session(identity=%q, expires_at=%s)", s.Identity, s.ExpiresAt.UTC().Format(time.RFC3339))
}
