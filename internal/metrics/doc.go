// Package metrics holds the manager's in-process counters and the initialization latency
// histogram.
//
// Every counter is a padded uint64 slot updated with sync/atomic; the histogram keeps eight
// fixed buckets from 5ms to +Inf plus a running sum. Writes never allocate. [Snapshot] copies
// the current values for the exporters under metrics/export.
//
// No I/O, no global registry, no imports of goSession.
package metrics
