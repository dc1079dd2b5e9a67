// Package metrics collects orchestrator counters on a private Prometheus
// registry and samples the orchestrator's own memory use.
package metrics
