package goSession

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/goSession/record"
	"github.com/MrEthical07/goSession/securestore"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// initStage is the writer-local result of initialization. Only the final value is published.
type initStage struct {
	state   State
	session *record.Session
}

func unauthenticated() initStage {
	return initStage{state: StateUnauthenticated}
}

func authenticated(s *record.Session) initStage {
	return initStage{state: StateAuthenticated, session: s}
}

// errRemoteQuery marks failures of the remote session query so the offline-tolerant mode
// can tell them apart from store failures.
type errRemoteQuery struct{ err error }

func (e errRemoteQuery) Error() string { return "remote session query: " + e.err.Error() }
func (e errRemoteQuery) Unwrap() error { return e.err }

// initialize runs the one-time startup reconciliation and publishes exactly once with
// Loading=false.
func (m *Manager) initialize() {
	start := m.now()
	ctx, span := m.tracer.Start(context.Background(), "goSession.init")
	defer span.End()

	stage, restored, err := m.reconcile(ctx)
	if err != nil {
		stage = m.recoverInit(ctx, err, restored)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	snap := m.publish(stage.state, stage.session, false)

	m.metricInc(MetricInitCompleted)
	m.metrics.Observe(MetricInitLatency, m.now().Sub(start))
	span.SetAttributes(
		attribute.String("goSession.state", snap.State.String()),
		attribute.Bool("goSession.restored", restored != nil),
	)
	m.emitAudit(AuditInitCompleted, auditSourceInit, err == nil, snap.Session, err, func() map[string]string {
		return map[string]string{
			"state":              snap.State.String(),
			auditMetadataVersion: strconv.FormatUint(snap.Version, 10),
		}
	})
	m.logger.Info("goSession: initialization complete",
		"state", snap.State.String(),
		"identity", snap.Identity(),
		"version", snap.Version,
	)
}

// reconcile performs the restore and remote query steps. It returns the staged state, the
// restored cached record (if any) and the first store or remote error.
func (m *Manager) reconcile(ctx context.Context) (initStage, *record.Session, error) {
	restored, err := m.restoreCached(ctx)
	if err != nil {
		return unauthenticated(), nil, err
	}

	stage := unauthenticated()
	if restored != nil {
		stage = authenticated(restored)
	}

	rctx, cancel := context.WithTimeout(ctx, m.config.Init.RemoteTimeout)
	remote, err := m.identity.CurrentSession(rctx)
	cancel()
	if err != nil {
		return stage, restored, errRemoteQuery{err: err}
	}
	if remote == nil {
		return stage, restored, nil
	}

	sctx, cancel := context.WithTimeout(ctx, m.config.Init.StoreTimeout)
	err = m.store.Set(sctx, m.config.Store.Key, remote.Bytes())
	cancel()
	if err != nil {
		return stage, restored, fmt.Errorf("persist remote session: %w", err)
	}

	m.metricInc(MetricRemoteSessionAccepted)
	m.emitAudit(AuditRemoteAccepted, auditSourceInit, true, remote, nil, func() map[string]string {
		return map[string]string{"expires_at": auditTime(remote.ExpiresAt)}
	})
	return authenticated(remote), restored, nil
}

// restoreCached reads the cached record. Absent, undecodable and expired entries yield
// (nil, nil); the latter two are deleted. A successfully restored record is handed to the
// identity service best-effort.
func (m *Manager) restoreCached(ctx context.Context) (*record.Session, error) {
	key := m.config.Store.Key

	sctx, cancel := context.WithTimeout(ctx, m.config.Init.StoreTimeout)
	data, err := m.store.Get(sctx, key)
	cancel()

	var s *record.Session
	switch {
	case errors.Is(err, securestore.ErrNotFound):
		return nil, nil
	case errors.Is(err, securestore.ErrCorrupt):
	case err != nil:
		return nil, fmt.Errorf("read cached session: %w", err)
	default:
		s, err = record.Parse(data)
	}

	if err != nil {
		m.metricInc(MetricCacheCorrupt)
		m.emitAudit(AuditCacheCorrupt, auditSourceInit, false, nil, err, nil)
		m.logger.Warn("goSession: discarding undecodable cached session", "err", err)
		return nil, m.deleteForInit(ctx)
	}

	if s.Expired(m.now()) {
		m.metricInc(MetricCacheExpired)
		m.emitAudit(AuditCacheExpired, auditSourceInit, true, s, nil, func() map[string]string {
			return map[string]string{"expires_at": auditTime(s.ExpiresAt)}
		})
		m.logger.Info("goSession: cached session expired", "identity", s.Identity, "expires_at", s.ExpiresAt)
		return nil, m.deleteForInit(ctx)
	}

	rctx, cancel := context.WithTimeout(ctx, m.config.Init.RemoteTimeout)
	if err := m.identity.SetSession(rctx, s); err != nil {
		m.metricInc(MetricRemoteFailure)
		m.logger.Warn("goSession: identity service rejected restored session", "identity", s.Identity, "err", err)
	}
	cancel()

	m.metricInc(MetricCacheRestored)
	m.emitAudit(AuditCacheRestored, auditSourceInit, true, s, nil, func() map[string]string {
		return map[string]string{"expires_at": auditTime(s.ExpiresAt)}
	})
	return s, nil
}

func (m *Manager) deleteForInit(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, m.config.Init.StoreTimeout)
	defer cancel()
	if err := m.store.Delete(sctx, m.config.Store.Key); err != nil {
		return fmt.Errorf("delete cached session: %w", err)
	}
	return nil
}

// recoverInit handles any store or remote failure of initialization: the cached entry is
// deleted and the result is Unauthenticated. With KeepCachedOnRemoteError a restored
// record survives a failed remote query.
func (m *Manager) recoverInit(ctx context.Context, err error, restored *record.Session) initStage {
	var remoteErr errRemoteQuery
	isRemote := errors.As(err, &remoteErr)

	if isRemote {
		m.metricInc(MetricRemoteFailure)
		m.emitAudit(AuditRemoteFailed, auditSourceInit, false, restored, err, nil)
	} else {
		m.metricInc(MetricCacheUnavailable)
		m.emitAudit(AuditCacheUnavailable, auditSourceInit, false, nil, err, nil)
	}

	if isRemote && restored != nil && m.config.Init.KeepCachedOnRemoteError {
		m.logger.Warn("goSession: remote session query failed, keeping cached session",
			"identity", restored.Identity, "err", err)
		return authenticated(restored)
	}

	m.logger.Error("goSession: initialization failed, clearing cached session", "err", err)
	if derr := m.deleteForInit(ctx); derr != nil {
		m.metricInc(MetricPersistFailure)
		m.logger.Warn("goSession: cached session delete failed", "err", derr)
	}
	return unauthenticated()
}
