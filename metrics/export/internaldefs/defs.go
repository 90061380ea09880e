// Package internaldefs maps metric IDs to their external names. The
// Prometheus and OTel exporters share these tables so both backends
// publish identical series.
package internaldefs

import (
	authservice "github.com/Vadimvill/auth-service"
)

type CounterDef struct {
	ID   authservice.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   authservice.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authservice.MetricLoginSuccess, Name: "authservice_login_success_total", Help: "Successful logins."},
	{ID: authservice.MetricLoginFailure, Name: "authservice_login_failure_total", Help: "Rejected login attempts."},
	{ID: authservice.MetricRefreshSuccess, Name: "authservice_refresh_success_total", Help: "Successful access token refreshes."},
	{ID: authservice.MetricRefreshFailure, Name: "authservice_refresh_failure_total", Help: "Rejected refresh attempts."},
	{ID: authservice.MetricLogout, Name: "authservice_logout_total", Help: "Logout operations."},
	{ID: authservice.MetricValidateSuccess, Name: "authservice_validate_success_total", Help: "Access tokens accepted by Validate."},
	{ID: authservice.MetricValidateFailure, Name: "authservice_validate_failure_total", Help: "Access tokens rejected by Validate."},
	{ID: authservice.MetricPermissionDenied, Name: "authservice_permission_denied_total", Help: "Permission checks that denied access."},
	{ID: authservice.MetricSessionCreated, Name: "authservice_session_created_total", Help: "Refresh sessions created."},
	{ID: authservice.MetricSessionRevoked, Name: "authservice_session_revoked_total", Help: "Refresh sessions revoked."},
	{ID: authservice.MetricAccountCreated, Name: "authservice_account_created_total", Help: "Accounts registered."},
}

var HistogramDefs = []HistogramDef{
	{ID: authservice.MetricValidateLatency, Name: "authservice_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, matching
// the engine's fixed 8-bucket layout.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal
// in OTel instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// both exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := range raw {
		running += raw[i]
		out[i] = running
	}
	return out
}
