// Package otel binds goSession metrics to an OpenTelemetry metric.Meter.
//
// [NewExporter] registers one Int64ObservableCounter per counter and, for the init
// latency histogram, a bucket gauge carrying an "le" attribute plus count and sum
// gauges. One callback reads [goSession.Manager.MetricsSnapshot] per collection. The
// caller owns the MeterProvider.
package otel
