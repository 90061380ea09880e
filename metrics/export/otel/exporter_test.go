package otel

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	authservice "github.com/Vadimvill/auth-service"
)

type fakeSource struct {
	snapshot authservice.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() authservice.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                         { return f.dropped }

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("authservice-test")

	src := &fakeSource{
		snapshot: authservice.MetricsSnapshot{
			Counters: map[authservice.MetricID]uint64{
				authservice.MetricLoginSuccess: 3,
			},
			Histograms: map[authservice.MetricID][]uint64{
				authservice.MetricValidateLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource: %v", err)
	}
	defer func() {
		if err := exp.Shutdown(); err != nil {
			t.Fatalf("Shutdown: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("no metrics collected")
	}

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "authservice_login_success_total" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("login success counter not collected")
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("authservice-test")

	if _, err := NewExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("nil meter err = %v, want ErrNilMeter", err)
	}
	if _, err := NewExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("nil source err = %v, want ErrNilSource", err)
	}
}
