package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"repo-digest/internal/pkg/config"
)

// WorkerMetrics tracks scheduled runs. Per-repository and per-feed numbers
// live in internal/observability/metrics.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// JobRunsTotal counts runs by status: started, success, failure.
	JobRunsTotal *prometheus.CounterVec

	// JobDurationSeconds observes the wall time of each run.
	JobDurationSeconds prometheus.Histogram

	// JobEntriesTotal counts digest entries produced across runs.
	JobEntriesTotal prometheus.Counter

	// JobLastSuccessTimestamp is the Unix time of the last clean run.
	JobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker metrics with the default registry.
// Call it once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith registers the worker metrics with reg.
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "repodigest_worker"),

		JobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "repodigest_worker_job_runs_total",
			Help: "Total number of scheduled digest runs by status (started/success/failure)",
		}, []string{"status"}),

		JobDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "repodigest_worker_job_duration_seconds",
			Help:    "Duration of scheduled digest runs in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800}, // 1s, 5s, 30s, 1m, 5m, 15m, 30m
		}),

		JobEntriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "repodigest_worker_job_entries_total",
			Help: "Total number of digest entries produced across scheduled runs",
		}),

		JobLastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "repodigest_worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last scheduled run without failures",
		}),
	}
}

// RecordJobRun increments the run counter for status.
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.JobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes one run's duration.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.JobDurationSeconds.Observe(seconds)
}

// RecordEntries adds produced entries.
func (m *WorkerMetrics) RecordEntries(count int) {
	m.JobEntriesTotal.Add(float64(count))
}

// RecordLastSuccess stamps the last clean run.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.JobLastSuccessTimestamp.SetToCurrentTime()
}
