package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/record"
)

// State is the authentication state of a [Snapshot].
type State uint8

const (
	// StateUninitialized holds until the first reconciliation publishes.
	StateUninitialized State = iota
	// StateAuthenticated means Snapshot.Session is set.
	StateAuthenticated
	// StateUnauthenticated means no valid session is known.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is one published authentication state. Snapshots are immutable values; the
// Session pointer is shared and must not be mutated by readers.
//
//	Loading is true before initialization completes and while a sign-out is in flight.
//	Version increases by one with every publish.
type Snapshot struct {
	State   State
	Session *record.Session
	Loading bool
	Version uint64
	At      time.Time
}

// Authenticated reports whether s carries a session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.Session != nil
}

// Identity returns the display identity of the current session, or "".
func (s Snapshot) Identity() string {
	if s.Session == nil {
		return ""
	}
	return s.Session.Identity
}

// EventKind classifies a [Notification] from the identity service.
type EventKind string

const (
	EventInitialSession EventKind = "INITIAL_SESSION"
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	EventUserUpdated    EventKind = "USER_UPDATED"
)

// Notification is an identity-service change event. A nil Session means "no live session";
// the Manager decides by Session, not by Kind.
type Notification struct {
	ID      string
	Kind    EventKind
	Session *record.Session
	At      time.Time
}

// CredentialStore persists the cached session bytes under a fixed key. Every
// securestore backend satisfies it.
//
// Get must return an error matching securestore.ErrNotFound when the key is absent and
// securestore.ErrCorrupt when the stored value cannot be opened. Delete of a missing key
// succeeds.
type CredentialStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// IdentityService is the remote authority for session validity.
//
// CurrentSession returns (nil, nil) when there is no live session. Subscribe callbacks may
// be invoked from any goroutine and must be delivered in the service's event order.
type IdentityService interface {
	CurrentSession(ctx context.Context) (*record.Session, error)
	SetSession(ctx context.Context, s *record.Session) error
	SignOut(ctx context.Context) error
	Subscribe(fn func(Notification)) (Subscription, error)
}

// Subscription cancels a registered notification callback.
type Subscription interface {
	Unsubscribe()
}

// Authenticator is implemented by identity services that can create sessions from
// credentials. It is optional; see [Manager.SignIn].
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*record.Session, error)
	SignUp(ctx context.Context, email, password string) (*record.Session, error)
}

// SubscriptionFunc adapts a function to [Subscription].
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}
