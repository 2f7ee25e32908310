package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type fakeSource struct {
	snapshot goSession.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goSession.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func gather(t *testing.T, c *Collector) map[string]*dto.MetricFamily {
	t.Helper()
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	if got := gather(t, c); len(got) != 0 {
		t.Fatalf("expected no families for disabled metrics, got %d", len(got))
	}
}

func TestCollectCountersAndHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricSignOut: 7,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricInitLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
			HistogramSums: map[goSession.MetricID]time.Duration{
				goSession.MetricInitLatency: 1500 * time.Millisecond,
			},
		},
		dropped: 2,
	})

	families := gather(t, c)

	signOut := families["gosession_signout_total"]
	if signOut == nil || signOut.GetMetric()[0].GetCounter().GetValue() != 7 {
		t.Fatalf("expected signout counter 7, got %v", signOut)
	}
	if got := families["gosession_audit_dropped_total"].GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected audit dropped 2, got %v", got)
	}

	latency := families["gosession_init_latency_seconds"]
	if latency == nil {
		t.Fatal("expected init latency histogram")
	}
	h := latency.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 36 {
		t.Fatalf("expected sample count 36, got %d", h.GetSampleCount())
	}
	if h.GetSampleSum() != 1.5 {
		t.Fatalf("expected sample sum 1.5, got %v", h.GetSampleSum())
	}
	first := h.GetBucket()[0]
	if first.GetUpperBound() != 0.005 || first.GetCumulativeCount() != 1 {
		t.Fatalf("unexpected first bucket %v", first)
	}
}

func TestHandlerServesTextFormat(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{goSession.MetricInitCompleted: 1},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gosession_init_completed_total 1") {
		t.Fatalf("expected init counter in output, got:\n%s", rec.Body.String())
	}
}

func BenchmarkCollect(b *testing.B) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricInitCompleted:       10,
				goSession.MetricNotificationApplied: 800,
				goSession.MetricSignOut:             20,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricInitLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = reg.Gather()
	}
}
