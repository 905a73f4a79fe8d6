// Package prometheus provides Prometheus collectors for goRevoke metrics.
//
// [NewPrometheusExporter] accepts an [goRevoke.Engine] and exposes an [http.Handler]
// that renders all goRevoke counters and histograms in Prometheus text exposition format.
// Counter names are prefixed gorevoke_*_total; the single histogram is
// gorevoke_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
