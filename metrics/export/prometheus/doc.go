// Package prometheus renders authstate metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts an [authstate.Manager] and exposes an
// [net/http.Handler] that renders all counters and the session
// resolution latency histogram. Counter names are prefixed
// authstate_*_total; the histogram is authstate_process_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount
//     the Handler.
//   - Mutate manager state.
package prometheus
