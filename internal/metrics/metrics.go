package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID indexes one counter slot.
type MetricID uint16

const (
	MetricInitCompleted MetricID = iota
	MetricCacheRestored
	MetricCacheExpired
	MetricCacheCorrupt
	MetricCacheUnavailable
	MetricRemoteSessionAccepted
	MetricRemoteFailure
	MetricNotificationApplied
	MetricNotificationRejected
	MetricPersistFailure
	MetricSignInSuccess
	MetricSignInFailure
	MetricSignOut
	MetricSignOutRemoteFailure
	MetricInitLatency
	MetricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// Config selects which metric families are recorded.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

type histogram struct {
	buckets  [histBucketCount]uint64
	sumNanos uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the counter array and latency histograms. A nil *Metrics is a valid no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]paddedCounter
	histograms    [MetricIDCount]histogram
}

// Snapshot is a point-in-time copy of all metric values.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
	// HistogramSums holds the total observed duration per histogram.
	HistogramSums map[MetricID]time.Duration
}

func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d into the histogram of id. Only latency IDs carry histograms.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || !isHistogram(id) {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
	if d > 0 {
		atomic.AddUint64(&m.histograms[id].sumNanos, uint64(d))
	}
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}

	s := Snapshot{
		Counters:      make(map[MetricID]uint64, int(MetricIDCount)),
		Histograms:    make(map[MetricID][]uint64, 1),
		HistogramSums: make(map[MetricID]time.Duration, 1),
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		if isHistogram(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricInitLatency].buckets[i])
		}
		s.Histograms[MetricInitLatency] = buckets
		s.HistogramSums[MetricInitLatency] = time.Duration(atomic.LoadUint64(&m.histograms[MetricInitLatency].sumNanos))
	}

	return s
}

func isHistogram(id MetricID) bool {
	return id == MetricInitLatency
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
