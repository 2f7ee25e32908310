package identity

import "errors"

var (
	// ErrInvalidCredentials is returned when email/password or a refresh token is rejected.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrUserExists is returned by SignUp for an already registered email.
	ErrUserExists = errors.New("identity: user already registered")
	// ErrNoSession is returned by operations that need a current session.
	ErrNoSession = errors.New("identity: no current session")
	// ErrInvalidSession is returned by SetSession for a session the service does not accept.
	ErrInvalidSession = errors.New("identity: session rejected")
	// ErrUnavailable wraps transport failures and 5xx responses.
	ErrUnavailable = errors.New("identity: service unavailable")
	// ErrRateLimited is returned when too many sign-in attempts failed for an account.
	ErrRateLimited = errors.New("identity: too many attempts")
)
