package authstate

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricSessionEstablished)
	m.Observe(MetricProcessLatency, 10*time.Millisecond)

	if m.Value(MetricSessionEstablished) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatal("disabled snapshot must be empty")
	}
}

func TestMetricsCountersConcurrent(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricAuthEventReceived)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricAuthEventReceived); got != 8000 {
		t.Fatalf("expected 8000, got %d", got)
	}
}

func TestMetricsLatencyBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	samples := []time.Duration{
		2 * time.Millisecond,
		8 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		80 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		900 * time.Millisecond,
	}
	for _, d := range samples {
		m.Observe(MetricProcessLatency, d)
	}

	snap := m.Snapshot()
	buckets, ok := snap.Histograms[MetricProcessLatency]
	if !ok {
		t.Fatal("expected latency histogram in snapshot")
	}
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, count := range buckets {
		if count != 1 {
			t.Fatalf("bucket %d: expected 1, got %d", i, count)
		}
	}
}

func TestMetricsLatencyDisabledSeparately(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: false})

	m.Observe(MetricProcessLatency, 10*time.Millisecond)
	m.Inc(MetricSessionEstablished)

	snap := m.Snapshot()
	if len(snap.Histograms) != 0 {
		t.Fatal("histograms must be absent when disabled")
	}
	if snap.Counters[MetricSessionEstablished] != 1 {
		t.Fatal("counters still work without histograms")
	}
}

func TestMetricsSnapshotIsACopy(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricGuardRender)

	snap := m.Snapshot()
	m.Inc(MetricGuardRender)

	if snap.Counters[MetricGuardRender] != 1 {
		t.Fatal("snapshot must not track later increments")
	}
	if m.Value(MetricGuardRender) != 2 {
		t.Fatalf("expected live value 2, got %d", m.Value(MetricGuardRender))
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{5 * time.Millisecond, 0},
		{6 * time.Millisecond, 1},
		{10 * time.Millisecond, 1},
		{25 * time.Millisecond, 2},
		{50 * time.Millisecond, 3},
		{100 * time.Millisecond, 4},
		{250 * time.Millisecond, 5},
		{500 * time.Millisecond, 6},
		{time.Second, 7},
		{time.Minute, 7},
	}
	for _, tt := range tests {
		if got := bucketIndex(tt.d); got != tt.want {
			t.Fatalf("bucketIndex(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}
