// Package instrumentation tracks the scheduler's own health: how long
// each collector takes and how often it fails. It is deliberately never
// exposed over HTTP — there is no network surface in this module — so
// the registry exists purely for the scheduler's internal bookkeeping
// and for anything embedding this package to read via Gather.
package instrumentation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is a private Prometheus registry, kept instance-scoped
// instead of package-global so tests don't collide.
type Registry struct {
	registry *prometheus.Registry

	collectDuration *prometheus.HistogramVec
	collectFailures *prometheus.CounterVec
	collectorUp     *prometheus.GaugeVec
}

// NewRegistry constructs a Registry with its metric families registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		collectDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ttop_collector_duration_seconds",
				Help:    "Duration of a single collector run",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"collector"},
		),
		collectFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ttop_collector_failures_total",
				Help: "Total number of failed collector runs",
			},
			[]string{"collector"},
		),
		collectorUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ttop_collector_up",
				Help: "Whether a collector's last run succeeded (1) or not (0)",
			},
			[]string{"collector"},
		),
	}

	reg.MustRegister(r.collectDuration, r.collectFailures, r.collectorUp)
	return r
}

// ObserveRun records one collector run's outcome and duration.
func (r *Registry) ObserveRun(collectorID string, duration time.Duration, err error) {
	r.collectDuration.WithLabelValues(collectorID).Observe(duration.Seconds())
	if err != nil {
		r.collectFailures.WithLabelValues(collectorID).Inc()
		r.collectorUp.WithLabelValues(collectorID).Set(0)
		return
	}
	r.collectorUp.WithLabelValues(collectorID).Set(1)
}

// Gatherer exposes the underlying prometheus.Gatherer for anything that
// wants to inspect the registry's families without a network endpoint
// (e.g. a local diagnostics command or a test assertion).
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
