package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"

	cycleRan     = "ran"
	cycleSkipped = "skipped"
	cycleError   = "error"
)

// CronJobMetrics tracks the rental sweeps run by the cron worker.
type CronJobMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	cycles      *prometheus.CounterVec
}

// NewCronJobMetrics registers the sweep metrics. A nil registerer yields a no-op recorder.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentwise_cron_job_runs_total",
			Help: "Sweep executions partitioned by job and outcome.",
		}, []string{"job", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rentwise_cron_job_duration_seconds",
			Help:    "Wall time of a single sweep.",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rentwise_cron_job_last_success_timestamp_seconds",
			Help: "Unix time of the last sweep that finished without error.",
		}, []string{"job"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentwise_cron_cycles_total",
			Help: "Cron cycles by result; skipped means another instance held the lock.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.runs, m.duration, m.lastSuccess, m.cycles)
	return m
}

// Observe records one sweep execution.
func (c *CronJobMetrics) Observe(job string, took time.Duration, err error) {
	if c == nil || c.runs == nil {
		return
	}
	if job == "" {
		job = "unknown"
	}
	c.duration.WithLabelValues(job).Observe(took.Seconds())
	if err != nil {
		c.runs.WithLabelValues(job, outcomeFailed).Inc()
		return
	}
	c.runs.WithLabelValues(job, outcomeOK).Inc()
	c.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

// ObserveCycle records whether a cycle ran, was skipped on the lock, or failed to start.
func (c *CronJobMetrics) ObserveCycle(ran bool, err error) {
	if c == nil || c.cycles == nil {
		return
	}
	switch {
	case err != nil && !ran:
		c.cycles.WithLabelValues(cycleError).Inc()
	case ran:
		c.cycles.WithLabelValues(cycleRan).Inc()
	default:
		c.cycles.WithLabelValues(cycleSkipped).Inc()
	}
}
