package goSession

import "errors"

var (
	// ErrManagerClosed is returned by operations invoked after Close.
	ErrManagerClosed = errors.New("session manager closed")
	// ErrManagerNotStarted is returned by operations that need the writer before Start.
	ErrManagerNotStarted = errors.New("session manager not started")
	// ErrManagerStarted is returned by a second call to Start.
	ErrManagerStarted = errors.New("session manager already started")
	// ErrSignInUnsupported is returned by SignIn and SignUp when the identity service cannot authenticate.
	ErrSignInUnsupported = errors.New("identity service does not support sign-in")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid session manager config")
	// ErrBuilderUsed is returned by a second call to Build on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrStoreRequired is returned by Build without a credential store.
	ErrStoreRequired = errors.New("credential store required")
	// ErrIdentityRequired is returned by Build without an identity service.
	ErrIdentityRequired = errors.New("identity service required")
	// ErrSignInSuperseded is returned by SignIn and SignUp when a sign-out was applied while
	// the identity service was authenticating; the new session is discarded.
	ErrSignInSuperseded = errors.New("sign-in superseded by sign-out")
	// ErrNilSession is returned when an identity service reports success without a session.
	ErrNilSession = errors.New("identity service returned no session")
)
