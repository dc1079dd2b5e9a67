package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "compmgr"

// Outcome labels for reconciled workers.
const (
	OutcomeSuccess  = "success"
	OutcomeAbnormal = "abnormal"
)

// Metrics holds the orchestrator's Prometheus collectors. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	activeWorkers  prometheus.GaugeFunc
	dispatched     prometheus.Counter
	dispatchFailed prometheus.Counter
	reconciled     *prometheus.CounterVec
	killed         prometheus.Counter
	duration       prometheus.Histogram
	httpRequests   *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry. liveWorkers is read
// at scrape time for the active workers gauge; nil reports zero.
func New(liveWorkers func() int) *Metrics {
	if liveWorkers == nil {
		liveWorkers = func() int { return 0 }
	}
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		activeWorkers: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workers",
			Help:      "Number of worker processes not yet reconciled.",
		}, func() float64 { return float64(liveWorkers()) }),
		dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workers_dispatched_total",
			Help:      "Total number of worker processes started.",
		}),
		dispatchFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_failures_total",
			Help:      "Total number of worker processes that failed to start.",
		}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workers_reconciled_total",
			Help:      "Total number of worker terminations observed, by outcome.",
		}, []string{"outcome"}),
		killed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workers_killed_total",
			Help:      "Total number of worker processes forcibly terminated.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "worker_duration_seconds",
			Help:      "Wall time from worker start to observed exit.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served, by path.",
		}, []string{"path"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.activeWorkers,
		m.dispatched,
		m.dispatchFailed,
		m.reconciled,
		m.killed,
		m.duration,
		m.httpRequests,
	)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler { return m.handler }

// WorkerStarted records a successful dispatch.
func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.dispatched.Inc()
}

// DispatchFailed records a worker that could not be started.
func (m *Metrics) DispatchFailed() {
	if m == nil {
		return
	}
	m.dispatchFailed.Inc()
}

// WorkerReconciled records an observed termination.
func (m *Metrics) WorkerReconciled(ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !ok {
		outcome = OutcomeAbnormal
	}
	m.reconciled.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// WorkersKilled records n forcibly terminated workers.
func (m *Metrics) WorkersKilled(n int) {
	if m == nil {
		return
	}
	m.killed.Add(float64(n))
}

// HTTPRequest counts one served request.
func (m *Metrics) HTTPRequest(path string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path).Inc()
}
