package internaldefs

import (
	authstate "github.com/csea-nits/authstate"
)

// CounterDef maps a core counter to its exported name.
type CounterDef struct {
	ID   authstate.MetricID
	Name string
	Help string
}

// HistogramDef maps a core histogram to its exported name.
type HistogramDef struct {
	ID   authstate.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authstate.MetricInitialize, Name: "authstate_initialize_total", Help: "Manager initializations."},
	{ID: authstate.MetricAuthEventReceived, Name: "authstate_auth_event_received_total", Help: "Auth notifications accepted for dispatch."},
	{ID: authstate.MetricAuthEventIgnored, Name: "authstate_auth_event_ignored_total", Help: "Auth notifications of unknown kinds."},
	{ID: authstate.MetricAuthEventCoalesced, Name: "authstate_auth_event_coalesced_total", Help: "Duplicate notifications collapsed by the debounce window."},
	{ID: authstate.MetricAuthEventDropped, Name: "authstate_auth_event_dropped_total", Help: "Notifications dropped by the single-flight guard."},
	{ID: authstate.MetricSessionEstablished, Name: "authstate_session_established_total", Help: "Settled sign-in resolutions."},
	{ID: authstate.MetricSessionCleared, Name: "authstate_session_cleared_total", Help: "Settled sign-out resolutions."},
	{ID: authstate.MetricTokenRefreshed, Name: "authstate_token_refreshed_total", Help: "Token-refresh notifications applied."},
	{ID: authstate.MetricProfileFetchSuccess, Name: "authstate_profile_fetch_success_total", Help: "Profile fetches that returned a row."},
	{ID: authstate.MetricProfileFetchMiss, Name: "authstate_profile_fetch_miss_total", Help: "Profile fetches for a not-yet-created row."},
	{ID: authstate.MetricProfileFetchFailure, Name: "authstate_profile_fetch_failure_total", Help: "Transient profile fetch failures."},
	{ID: authstate.MetricProfileRefreshed, Name: "authstate_profile_refreshed_total", Help: "Explicit profile refresh completions."},
	{ID: authstate.MetricGuardRender, Name: "authstate_guard_render_total", Help: "Guard decisions that rendered the route."},
	{ID: authstate.MetricGuardLoading, Name: "authstate_guard_loading_total", Help: "Guard decisions deferred while loading."},
	{ID: authstate.MetricGuardRedirectLogin, Name: "authstate_guard_redirect_login_total", Help: "Redirects to the login page."},
	{ID: authstate.MetricGuardRedirectCompleteProfile, Name: "authstate_guard_redirect_complete_profile_total", Help: "Redirects to the complete-profile page."},
	{ID: authstate.MetricGuardRedirectCollegeVerification, Name: "authstate_guard_redirect_college_verification_total", Help: "Redirects to the college-verification page."},
	{ID: authstate.MetricGuardRedirectDashboard, Name: "authstate_guard_redirect_dashboard_total", Help: "Redirects to the dashboard."},
}

var HistogramDefs = []HistogramDef{
	{ID: authstate.MetricProcessLatency, Name: "authstate_process_latency_seconds", Help: "Session resolution latency histogram."},
}

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

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// Prometheus histograms use.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
