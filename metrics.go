package goSession

import (
	"time"

	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
)

// MetricID identifies a specific counter or histogram in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricInitCompleted counts finished initialization sequences.
	MetricInitCompleted = internalmetrics.MetricInitCompleted
	// MetricCacheRestored counts unexpired cached sessions restored at startup.
	MetricCacheRestored = internalmetrics.MetricCacheRestored
	// MetricCacheExpired counts expired cached sessions discarded at startup.
	MetricCacheExpired = internalmetrics.MetricCacheExpired
	// MetricCacheCorrupt counts undecodable cached entries discarded at startup.
	MetricCacheCorrupt = internalmetrics.MetricCacheCorrupt
	// MetricCacheUnavailable counts credential store I/O failures.
	MetricCacheUnavailable = internalmetrics.MetricCacheUnavailable
	// MetricRemoteSessionAccepted counts sessions accepted from the remote query at startup.
	MetricRemoteSessionAccepted = internalmetrics.MetricRemoteSessionAccepted
	// MetricRemoteFailure counts failed identity service calls.
	MetricRemoteFailure = internalmetrics.MetricRemoteFailure
	// MetricNotificationApplied counts applied change notifications.
	MetricNotificationApplied = internalmetrics.MetricNotificationApplied
	// MetricNotificationRejected counts expired pushed sessions treated as sign-out.
	MetricNotificationRejected = internalmetrics.MetricNotificationRejected
	// MetricPersistFailure counts failed writes or deletes of the cached entry.
	MetricPersistFailure = internalmetrics.MetricPersistFailure
	// MetricSignInSuccess counts successful SignIn and SignUp calls.
	MetricSignInSuccess = internalmetrics.MetricSignInSuccess
	// MetricSignInFailure counts failed SignIn and SignUp calls.
	MetricSignInFailure = internalmetrics.MetricSignInFailure
	// MetricSignOut counts completed sign-outs.
	MetricSignOut = internalmetrics.MetricSignOut
	// MetricSignOutRemoteFailure counts sign-outs whose remote revoke failed.
	MetricSignOutRemoteFailure = internalmetrics.MetricSignOutRemoteFailure
	// MetricInitLatency is the initialization latency histogram.
	MetricInitLatency = internalmetrics.MetricInitLatency
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance configured by cfg. When Enabled is false, all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}

// MetricsSnapshot returns the manager's current metric values.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}
	return m.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped by dispatcher backpressure.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}
