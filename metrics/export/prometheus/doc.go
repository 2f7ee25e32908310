// Package prometheus exposes goSession metrics to Prometheus.
//
// [NewCollector] wraps a [goSession.Manager] in a prometheus.Collector. Register it on
// any registry, or mount [Collector.Handler] to serve it from a private one. Counter
// names are gosession_*_total; the single histogram is gosession_init_latency_seconds.
package prometheus
