package goSession

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SignOut revokes the session remotely and clears it locally. Observers see the current
// state with Loading=true, then Unauthenticated with Loading=false.
//
// A remote revoke failure is logged and counted; local cleanup always runs and SignOut
// still succeeds. Once queued, the sign-out completes even if ctx ends first; ctx only
// bounds the wait.
func (m *Manager) SignOut(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := m.send(ctx, command{
		kind: cmdSignOut,
		ctx:  context.WithoutCancel(ctx),
	})
	return err
}

func (m *Manager) signOut(ctx context.Context) Snapshot {
	ctx, span := m.tracer.Start(ctx, "goSession.signout")
	defer span.End()

	prev := m.Snapshot()
	m.publish(prev.State, prev.Session, true)

	rctx, cancel := m.identityContext(ctx)
	err := m.identity.SignOut(rctx)
	cancel()
	if err != nil {
		m.metricInc(MetricSignOutRemoteFailure)
		m.emitAudit(AuditSignOutRemoteFailed, auditSourceSignOut, false, prev.Session, err, nil)
		m.logger.Warn("goSession: remote sign-out failed", "identity", prev.Identity(), "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	m.clearCached(ctx)
	m.signOuts.Add(1)
	snap := m.publish(StateUnauthenticated, nil, false)

	m.metricInc(MetricSignOut)
	span.SetAttributes(attribute.Bool("goSession.remote_ok", err == nil))
	m.emitAudit(AuditSignedOut, auditSourceSignOut, true, prev.Session, nil, nil)
	m.logger.Info("goSession: signed out", "identity", prev.Identity())

	return snap
}
