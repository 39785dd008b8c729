// Package metric provides Prometheus-based observability for the datasynth pipeline.
//
// # Overview
//
// The package bundles a MetricsRegistry (an isolated prometheus.Registry plus the
// core pipeline Metrics set), Record* helpers for the hot path, and an optional
// HTTP server exposing /metrics and /health.
//
// Core metrics cover the full task lifecycle: entities registered and rejected by
// the store, tasks submitted per topic, messages sent, acknowledged, and failed
// per topic, transfer queue depth, drain-and-retry cycles, and shutdown flush
// duration. NATS connection health (status, RTT, reconnects, circuit breaker
// state) is tracked alongside.
//
// # Quick Start
//
//	registry := metric.NewMetricsRegistry()
//	core := registry.CoreMetrics()
//
//	core.RecordTaskSubmitted("banking.transactions")
//	core.RecordMessageSent("banking.transactions")
//
//	server := metric.NewServer(9090, "/metrics", registry)
//	if err := server.Start(); err != nil {
//		return err
//	}
//	defer server.Stop()
//
// Components register their own collectors through the MetricsRegistrar
// interface; names are scoped as "component.metric" so duplicate registrations
// are rejected with an invalid-class error.
package metric
