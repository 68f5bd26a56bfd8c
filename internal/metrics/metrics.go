// Package metrics exposes Prometheus metrics for the scoring job lifecycle.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the scoring metrics
type Collector struct {
	jobsInitiated prometheus.Counter
	jobsCompleted prometheus.Counter
	jobsFailed    *prometheus.CounterVec
	jobsExpired   prometheus.Counter
	jobsPending   prometheus.Gauge
	jobDuration   *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewCollector registers the metrics with reg. A nil reg uses a fresh
// private registry.
func NewCollector(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collector{
		jobsInitiated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoring_jobs_initiated_total",
			Help: "Total number of scoring jobs initiated",
		}),
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoring_jobs_completed_total",
			Help: "Total number of scoring jobs completed with a score",
		}),
		jobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_jobs_failed_total",
			Help: "Total number of scoring jobs that failed, by reason class",
		}, []string{"reason"}),
		jobsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoring_jobs_expired_total",
			Help: "Total number of terminal jobs removed by the expiry sweep",
		}),
		jobsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scoring_jobs_pending",
			Help: "Current number of pending scoring jobs",
		}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scoring_job_duration_seconds",
			Help:    "Time from initiation to terminal state",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
		}, []string{"state"}),
		gatherer: reg,
	}

	reg.MustRegister(
		c.jobsInitiated,
		c.jobsCompleted,
		c.jobsFailed,
		c.jobsExpired,
		c.jobsPending,
		c.jobDuration,
	)

	return c
}

// Failure reason classes
const (
	ReasonInvalidClient = "invalid_client"
	ReasonUpstream      = "upstream"
	ReasonTimeout       = "timeout"
	ReasonCancelled     = "cancelled"
	ReasonInternal      = "internal"
)

// RecordInitiated counts a new job
func (c *Collector) RecordInitiated() {
	c.jobsInitiated.Inc()
	c.jobsPending.Inc()
}

// RecordCompleted counts a job that produced a score
func (c *Collector) RecordCompleted(d time.Duration) {
	c.jobsCompleted.Inc()
	c.jobsPending.Dec()
	c.jobDuration.WithLabelValues("completed").Observe(d.Seconds())
}

// RecordFailed counts a job that failed with the given reason class
func (c *Collector) RecordFailed(reason string, d time.Duration) {
	c.jobsFailed.WithLabelValues(reason).Inc()
	c.jobsPending.Dec()
	c.jobDuration.WithLabelValues("failed").Observe(d.Seconds())
}

// RecordExpired counts jobs removed by a sweep
func (c *Collector) RecordExpired(n int) {
	if n > 0 {
		c.jobsExpired.Add(float64(n))
	}
}

// SetPending overwrites the pending gauge with an authoritative count
func (c *Collector) SetPending(n int) {
	c.jobsPending.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// JobsCompleted exposes the completed counter for inspection
func (c *Collector) JobsCompleted() prometheus.Counter {
	return c.jobsCompleted
}

// JobsFailed exposes the failed counter for one reason class
func (c *Collector) JobsFailed(reason string) prometheus.Counter {
	return c.jobsFailed.WithLabelValues(reason)
}

// JobsExpired exposes the expired counter for inspection
func (c *Collector) JobsExpired() prometheus.Counter {
	return c.jobsExpired
}
