package authservice

import (
	"testing"
	"time"
)

func TestMetricsDisabledIsInert(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricLoginSuccess)
	m.Observe(MetricValidateLatency, time.Millisecond)

	if m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("disabled metrics recorded a count")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("disabled snapshot not empty: %+v", snap)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLoginSuccess)
	if nilMetrics.Value(MetricLoginSuccess) != 0 {
		t.Fatal("nil metrics recorded a count")
	}
}

func TestMetricsCountersAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	for i := 0; i < 3; i++ {
		m.Inc(MetricLoginSuccess)
	}
	m.Inc(MetricLoginFailure)

	if got := m.Value(MetricLoginSuccess); got != 3 {
		t.Fatalf("Value(LoginSuccess) = %d, want 3", got)
	}

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 3 || snap.Counters[MetricLoginFailure] != 1 {
		t.Fatalf("snapshot counters = %v", snap.Counters)
	}
	if _, ok := snap.Histograms[MetricValidateLatency]; ok {
		t.Fatal("histogram present without latency enabled")
	}
}

func TestMetricsLatencyBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricValidateLatency, 2*time.Millisecond)   // bucket 0, le=5ms
	m.Observe(MetricValidateLatency, 25*time.Millisecond)  // bucket 2, le=25ms inclusive
	m.Observe(MetricValidateLatency, 30*time.Millisecond)  // bucket 3, le=50ms
	m.Observe(MetricValidateLatency, 900*time.Millisecond) // overflow bucket

	buckets := m.Snapshot().Histograms[MetricValidateLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("bucket count = %d, want %d", len(buckets), histBucketCount)
	}
	if buckets[0] != 1 || buckets[2] != 1 || buckets[3] != 1 || buckets[7] != 1 {
		t.Fatalf("bucket layout = %v", buckets)
	}

	// Other IDs never reach the histogram.
	m.Observe(MetricLoginSuccess, time.Millisecond)
	if got := m.Snapshot().Histograms[MetricValidateLatency]; got[0] != 1 {
		t.Fatalf("foreign Observe leaked into histogram: %v", got)
	}
}
