// Package metrics records report runs for Prometheus and as JSON summaries.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for recorded runs.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector owns the report metrics and the registry they live in.
type Collector struct {
	registry *prometheus.Registry

	runs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rows       *prometheus.GaugeVec
	mismatches prometheus.Counter
}

// NewCollector creates a Collector on a private registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salesreport",
			Name:      "runs_total",
			Help:      "Report computations by engine and outcome.",
		}, []string{"engine", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salesreport",
			Name:      "run_duration_seconds",
			Help:      "Time spent computing a report.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"engine"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "salesreport",
			Name:      "report_rows",
			Help:      "Rows in the last successful report per engine.",
		}, []string{"engine"}),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salesreport",
			Name:      "realization_mismatches_total",
			Help:      "Runs where the two engines disagreed.",
		}),
	}
	c.registry.MustRegister(
		c.runs, c.duration, c.rows, c.mismatches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// RecordRun records one report computation.
func (c *Collector) RecordRun(engine string, err error, rows int, d time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	c.runs.WithLabelValues(engine, outcome).Inc()
	c.duration.WithLabelValues(engine).Observe(d.Seconds())
	if err == nil {
		c.rows.WithLabelValues(engine).Set(float64(rows))
	}
}

// RecordMismatch counts a disagreement between engines.
func (c *Collector) RecordMismatch() {
	c.mismatches.Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
