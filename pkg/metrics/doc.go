// Package metrics exposes Prometheus collectors for gate clients and the load
// harness.
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.New(metrics.WithRegistry(reg))
//	http.Handle("/metrics", rec.Handler())
//
// A nil *Recorder is valid and records nothing.
package metrics
