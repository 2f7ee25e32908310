package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledMetricsAreNoOp(t *testing.T) {
	m := New(Config{Enabled: false})
	m.Inc(MetricSignOut)
	m.Observe(MetricInitLatency, time.Millisecond)
	if m.Value(MetricSignOut) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricSignOut)
	if nilMetrics.Enabled() {
		t.Fatal("nil metrics must report disabled")
	}
}

func TestConcurrentIncrements(t *testing.T) {
	m := New(Config{Enabled: true})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricNotificationApplied)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricNotificationApplied); got != 8000 {
		t.Fatalf("expected 8000, got %d", got)
	}
	if got := m.Snapshot().Counters[MetricNotificationApplied]; got != 8000 {
		t.Fatalf("snapshot mismatch: %d", got)
	}
}

func TestInitLatencyBuckets(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})
	m.Observe(MetricInitLatency, 3*time.Millisecond)
	m.Observe(MetricInitLatency, 70*time.Millisecond)
	m.Observe(MetricInitLatency, 2*time.Second)
	m.Observe(MetricSignOut, time.Millisecond)

	buckets := m.Snapshot().Histograms[MetricInitLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	if buckets[0] != 1 || buckets[4] != 1 || buckets[7] != 1 {
		t.Fatalf("unexpected buckets %v", buckets)
	}
	if _, ok := m.Snapshot().Counters[MetricInitLatency]; ok {
		t.Fatal("histogram id must not appear as a counter")
	}
}
