package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	authservice "github.com/Vadimvill/auth-service"
)

type fakeSource struct {
	snapshot authservice.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() authservice.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                         { return f.dropped }

func TestRender(t *testing.T) {
	source := &fakeSource{
		snapshot: authservice.MetricsSnapshot{
			Counters: map[authservice.MetricID]uint64{
				authservice.MetricLoginSuccess:    7,
				authservice.MetricValidateFailure: 2,
			},
			Histograms: map[authservice.MetricID][]uint64{
				authservice.MetricValidateLatency: {4, 1, 0, 0, 0, 0, 0, 1},
			},
		},
		dropped: 3,
	}

	out := NewExporterFromSource(source).Render()

	for _, want := range []string{
		"# TYPE authservice_login_success_total counter",
		"authservice_login_success_total 7",
		"authservice_validate_failure_total 2",
		"authservice_refresh_success_total 0",
		"# TYPE authservice_validate_latency_seconds histogram",
		`authservice_validate_latency_seconds_bucket{le="0.005"} 4`,
		`authservice_validate_latency_seconds_bucket{le="0.01"} 5`,
		`authservice_validate_latency_seconds_bucket{le="+Inf"} 6`,
		"authservice_validate_latency_seconds_count 6",
		"authservice_audit_dropped_total 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q", want)
		}
	}
}

func TestHandler(t *testing.T) {
	source := &fakeSource{snapshot: authservice.MetricsSnapshot{
		Counters:   map[authservice.MetricID]uint64{},
		Histograms: map[authservice.MetricID][]uint64{},
	}}

	rec := httptest.NewRecorder()
	NewExporterFromSource(source).Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "authservice_login_success_total 0") {
		t.Fatal("handler did not render zero-valued counters")
	}
}

func TestNilExporterRendersEmpty(t *testing.T) {
	var p *Exporter
	if p.Render() != "" {
		t.Fatal("nil exporter rendered output")
	}
}
