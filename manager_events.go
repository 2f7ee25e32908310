package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/record"
)

// applyNotification handles one identity change event on the writer goroutine. The store
// is updated before the new state is published.
func (m *Manager) applyNotification(n Notification) {
	s := n.Session
	if s != nil && m.config.Notifications.RejectExpired && s.Expired(m.now()) {
		m.metricInc(MetricNotificationRejected)
		m.emitAudit(AuditNotificationRejected, auditSourceNotification, false, s, nil, func() map[string]string {
			return map[string]string{
				auditMetadataNotificationID: n.ID,
				auditMetadataKind:           string(n.Kind),
				"expires_at":                auditTime(s.ExpiresAt),
			}
		})
		m.logger.Warn("goSession: pushed session already expired, treating as signed out",
			"kind", n.Kind, "identity", s.Identity)
		s = nil
	}

	ctx := context.Background()
	var snap Snapshot
	if s != nil {
		m.persist(ctx, s)
		snap = m.publish(StateAuthenticated, s, false)
	} else {
		m.clearCached(ctx)
		m.signOuts.Add(1)
		snap = m.publish(StateUnauthenticated, nil, false)
	}

	m.metricInc(MetricNotificationApplied)
	m.emitAudit(AuditNotificationApplied, auditSourceNotification, true, snap.Session, nil, func() map[string]string {
		return map[string]string{
			auditMetadataNotificationID: n.ID,
			auditMetadataKind:           string(n.Kind),
			"state":                     snap.State.String(),
		}
	})
	m.logger.Debug("goSession: notification applied",
		"kind", n.Kind,
		"state", snap.State.String(),
		"version", snap.Version,
	)
}

// persist writes s under the fixed key. Failures are logged and counted, never returned.
func (m *Manager) persist(ctx context.Context, s *record.Session) {
	sctx, cancel := m.storeContext(ctx)
	defer cancel()
	if err := m.store.Set(sctx, m.config.Store.Key, s.Bytes()); err != nil {
		m.metricInc(MetricPersistFailure)
		m.logger.Warn("goSession: persisting session failed", "identity", s.Identity, "err", err)
	}
}

// clearCached deletes the cached entry. Failures are logged and counted, never returned.
func (m *Manager) clearCached(ctx context.Context) {
	sctx, cancel := m.storeContext(ctx)
	defer cancel()
	if err := m.store.Delete(sctx, m.config.Store.Key); err != nil {
		m.metricInc(MetricPersistFailure)
		m.logger.Warn("goSession: deleting cached session failed", "err", err)
	}
}

func (m *Manager) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), m.config.Store.OpTimeout)
}

func (m *Manager) identityContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.config.Identity.OpTimeout)
}
