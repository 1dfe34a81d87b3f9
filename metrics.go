package authstate

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or histogram in the in-process metrics
// registry.
type MetricID uint16

const (
	// MetricInitialize counts Initialize runs (at most one per manager).
	MetricInitialize MetricID = iota
	// MetricAuthEventReceived counts notifications accepted for dispatch.
	MetricAuthEventReceived
	// MetricAuthEventIgnored counts notifications of unknown kinds.
	MetricAuthEventIgnored
	// MetricAuthEventCoalesced counts duplicates collapsed by the
	// debounce window.
	MetricAuthEventCoalesced
	// MetricAuthEventDropped counts events suppressed by the
	// single-flight guard.
	MetricAuthEventDropped
	// MetricSessionEstablished counts settled sign-in resolutions.
	MetricSessionEstablished
	// MetricSessionCleared counts settled sign-out resolutions.
	MetricSessionCleared
	// MetricTokenRefreshed counts token-refresh notifications applied.
	MetricTokenRefreshed
	// MetricProfileFetchSuccess counts profile fetches returning a row.
	MetricProfileFetchSuccess
	// MetricProfileFetchMiss counts the expected first-login not-found.
	MetricProfileFetchMiss
	// MetricProfileFetchFailure counts transient profile-fetch failures.
	MetricProfileFetchFailure
	// MetricProfileRefreshed counts explicit RefreshProfile completions.
	MetricProfileRefreshed
	// MetricGuardRender counts guard decisions that rendered content.
	MetricGuardRender
	// MetricGuardLoading counts guard decisions deferred while loading.
	MetricGuardLoading
	// MetricGuardRedirectLogin counts redirects to the login page.
	MetricGuardRedirectLogin
	// MetricGuardRedirectCompleteProfile counts redirects to the
	// complete-profile page.
	MetricGuardRedirectCompleteProfile
	// MetricGuardRedirectCollegeVerification counts redirects to the
	// college-verification page.
	MetricGuardRedirectCollegeVerification
	// MetricGuardRedirectDashboard counts redirects to the dashboard
	// (guest-only inversions and failed admin checks).
	MetricGuardRedirectDashboard
	// MetricProcessLatency is the processSession latency histogram.
	MetricProcessLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters and an optional latency histogram for
// the session-resolution path. A nil or disabled Metrics is a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a registry configured by cfg. When Enabled is
// false all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample. Only MetricProcessLatency carries a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricProcessLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot deep-copies all counters and histogram buckets.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricProcessLatency].buckets[i])
		}
		s.Histograms[MetricProcessLatency] = buckets
	}

	return s
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
