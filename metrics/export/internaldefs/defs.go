package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one counter for exporters.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one latency histogram for exporters.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in MetricID order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricInitCompleted, Name: "gosession_init_completed_total", Help: "Completed initialization sequences."},
	{ID: goSession.MetricCacheRestored, Name: "gosession_cache_restored_total", Help: "Cached sessions restored at startup."},
	{ID: goSession.MetricCacheExpired, Name: "gosession_cache_expired_total", Help: "Expired cached sessions discarded at startup."},
	{ID: goSession.MetricCacheCorrupt, Name: "gosession_cache_corrupt_total", Help: "Corrupt cached entries discarded at startup."},
	{ID: goSession.MetricCacheUnavailable, Name: "gosession_cache_unavailable_total", Help: "Credential store I/O failures."},
	{ID: goSession.MetricRemoteSessionAccepted, Name: "gosession_remote_session_accepted_total", Help: "Sessions accepted from the identity service at startup."},
	{ID: goSession.MetricRemoteFailure, Name: "gosession_remote_failure_total", Help: "Failed identity service calls."},
	{ID: goSession.MetricNotificationApplied, Name: "gosession_notification_applied_total", Help: "Applied change notifications."},
	{ID: goSession.MetricNotificationRejected, Name: "gosession_notification_rejected_total", Help: "Expired pushed sessions treated as sign-out."},
	{ID: goSession.MetricPersistFailure, Name: "gosession_persist_failure_total", Help: "Failed writes or deletes of the cached entry."},
	{ID: goSession.MetricSignInSuccess, Name: "gosession_signin_success_total", Help: "Successful sign-in and sign-up calls."},
	{ID: goSession.MetricSignInFailure, Name: "gosession_signin_failure_total", Help: "Failed sign-in and sign-up calls."},
	{ID: goSession.MetricSignOut, Name: "gosession_signout_total", Help: "Completed sign-outs."},
	{ID: goSession.MetricSignOutRemoteFailure, Name: "gosession_signout_remote_failure_total", Help: "Sign-outs whose remote revoke failed."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricInitLatency, Name: "gosession_init_latency_seconds", Help: "Initialization latency."},
}

// HistogramBounds are the upper bounds in seconds of the in-process buckets. The last
// bucket is unbounded.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
