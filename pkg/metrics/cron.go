package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics tracks cron job outcomes per job name.
type CronJobMetrics struct {
	runs        *prometheus.HistogramVec
	succeeded   *prometheus.CounterVec
	failed      *prometheus.CounterVec
	lostLock    prometheus.Counter
	lastSuccess *prometheus.GaugeVec
}

var jobLabel = []string{"job"}

// NewCronJobMetrics registers on reg; nil reg returns a recorder that drops
// everything.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return nil
	}
	m := &CronJobMetrics{
		runs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Cron job run time.",
			Buckets: []float64{.05, .1, .5, 1, 5, 15, 60, 300},
		}, jobLabel),
		succeeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_success",
			Help: "Cron job runs that returned no error.",
		}, jobLabel),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_failure",
			Help: "Cron job runs that returned an error.",
		}, jobLabel),
		lostLock: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "job_cycles_skipped_total",
			Help: "Cycles skipped while another instance held the cron lock.",
		}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}, jobLabel),
	}
	reg.MustRegister(m.runs, m.succeeded, m.failed, m.lostLock, m.lastSuccess)
	return m
}

// ObserveRun records one job execution that finished at finished.
func (c *CronJobMetrics) ObserveRun(job string, took time.Duration, runErr error, finished time.Time) {
	if c == nil {
		return
	}
	job = normalizeLabel(job)
	c.runs.WithLabelValues(job).Observe(took.Seconds())
	if runErr != nil {
		c.failed.WithLabelValues(job).Inc()
		return
	}
	c.succeeded.WithLabelValues(job).Inc()
	c.lastSuccess.WithLabelValues(job).Set(float64(finished.Unix()))
}

func (c *CronJobMetrics) IncSkipped() {
	if c != nil {
		c.lostLock.Inc()
	}
}

// normalizeLabel keeps empty label values out of the exported series.
func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
