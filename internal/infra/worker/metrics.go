package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// JobMetrics tracks scheduled job execution. Both the collection and
// classification jobs share the same instance, distinguished by the job
// label.
type JobMetrics struct {
	// JobRunsTotal counts runs by job name and outcome (started,
	// success, failure).
	JobRunsTotal *prometheus.CounterVec

	// JobDurationSeconds measures one full job run.
	JobDurationSeconds *prometheus.HistogramVec

	// JobLastSuccessTimestamp records when a job last completed cleanly.
	JobLastSuccessTimestamp *prometheus.GaugeVec
}

// NewJobMetrics creates and registers the job metrics on the default
// Prometheus registry.
func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of scheduled job runs by job and status",
		}, []string{"job", "status"}),

		JobDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of one scheduled job run in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}, []string{"job"}),

		JobLastSuccessTimestamp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run by job",
		}, []string{"job"}),
	}
}

// RecordJobRun increments the run counter for a job and status.
func (m *JobMetrics) RecordJobRun(job, status string) {
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordJobDuration observes how long one run of a job took.
func (m *JobMetrics) RecordJobDuration(job string, seconds float64) {
	m.JobDurationSeconds.WithLabelValues(job).Observe(seconds)
}

// RecordLastSuccess marks the current time as the job's last clean finish.
func (m *JobMetrics) RecordLastSuccess(job string) {
	m.JobLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
}
