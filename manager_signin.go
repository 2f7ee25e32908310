package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/record"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SignIn authenticates with email and password through the identity service's
// [Authenticator] and applies the returned session like a sign-in notification: persisted
// first, then published. The published snapshot is returned.
//
// Authentication failures are returned unchanged and leave the state untouched.
func (m *Manager) SignIn(ctx context.Context, email, password string) (Snapshot, error) {
	return m.authenticate(ctx, "goSession.signin", false, func(ctx context.Context, auth Authenticator) (*record.Session, error) {
		return auth.SignInWithPassword(ctx, email, password)
	})
}

// SignUp registers a new account through the identity service's [Authenticator]. When the
// service returns a session (no confirmation step), it is applied like SignIn.
func (m *Manager) SignUp(ctx context.Context, email, password string) (Snapshot, error) {
	return m.authenticate(ctx, "goSession.signup", true, func(ctx context.Context, auth Authenticator) (*record.Session, error) {
		return auth.SignUp(ctx, email, password)
	})
}

func (m *Manager) authenticate(
	ctx context.Context,
	spanName string,
	allowPending bool,
	call func(context.Context, Authenticator) (*record.Session, error),
) (Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	auth, ok := m.identity.(Authenticator)
	if !ok {
		return Snapshot{}, ErrSignInUnsupported
	}

	m.lifecycleMu.Lock()
	started, closed := m.started, m.closed
	m.lifecycleMu.Unlock()
	if closed {
		return Snapshot{}, ErrManagerClosed
	}
	if !started {
		return Snapshot{}, ErrManagerNotStarted
	}

	ctx, span := m.tracer.Start(ctx, spanName)
	defer span.End()

	signOuts := m.signOuts.Load()
	actx, cancel := m.identityContext(ctx)
	s, err := call(actx, auth)
	cancel()
	if err == nil && s == nil {
		if allowPending {
			// Account created but awaiting confirmation; nothing to apply.
			return m.Snapshot(), nil
		}
		err = ErrNilSession
	}
	if err != nil {
		m.metricInc(MetricSignInFailure)
		m.emitAudit(AuditSignedIn, auditSourceSignIn, false, nil, err, nil)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}

	snap, err := m.send(ctx, command{
		kind:    cmdApplySession,
		ctx:     context.WithoutCancel(ctx),
		session:  s,
		source:   auditSourceSignIn,
		signOuts: signOuts,
	})
	if err != nil {
		if errors.Is(err, ErrSignInSuperseded) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return snap, err
	}
	span.SetAttributes(attribute.String("goSession.state", snap.State.String()))
	return snap, nil
}

// applySession persists and publishes a session obtained by SignIn or SignUp. A session
// whose authentication overlapped a sign-out is discarded and the state is left as is.
func (m *Manager) applySession(ctx context.Context, s *record.Session, source string, signOuts uint64) (Snapshot, error) {
	if m.signOuts.Load() != signOuts {
		m.metricInc(MetricSignInFailure)
		m.emitAudit(AuditSignedIn, source, false, s, ErrSignInSuperseded, nil)
		m.logger.Warn("goSession: discarding sign-in that raced a sign-out", "identity", s.Identity)
		return m.Snapshot(), ErrSignInSuperseded
	}

	m.persist(ctx, s)
	snap := m.publish(StateAuthenticated, s, false)

	m.metricInc(MetricSignInSuccess)
	m.emitAudit(AuditSignedIn, source, true, s, nil, func() map[string]string {
		return map[string]string{"expires_at": auditTime(s.ExpiresAt)}
	})
	m.logger.Info("goSession: signed in", "identity", s.Identity, "version", snap.Version)
	return snap, nil
}
