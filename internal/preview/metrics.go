// Package preview provides the fire-and-forget preview generation outbox:
// scene mutations enqueue jobs, a dispatcher worker posts them to the
// preview rendering service, and failures are logged and counted but never
// propagated back to the mutation path.
package preview

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricPreviewJobsTotal    = "preview_jobs_total"
	MetricPreviewJobsDuration = "preview_jobs_duration_seconds"
	MetricPreviewJobsDropped  = "preview_jobs_dropped_total"
)

// Status constants for job completion.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics contains Prometheus metrics for preview job dispatch.
// All operations are thread-safe.
type Metrics struct {
	jobsTotal    *prometheus.CounterVec
	jobsDuration prometheus.Histogram
	jobsDropped  prometheus.Counter
}

// NewMetrics creates a Metrics instance. The collectors are not registered;
// call Register to attach them to a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPreviewJobsTotal,
				Help: "Total number of preview generation requests by status",
			},
			[]string{"status"},
		),
		jobsDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricPreviewJobsDuration,
				Help:    "Histogram of preview request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
		),
		jobsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricPreviewJobsDropped,
				Help: "Total number of preview jobs dropped because the outbox was full",
			},
		),
	}
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.jobsTotal, m.jobsDuration, m.jobsDropped} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordDispatch records one completed dispatch attempt.
func (m *Metrics) RecordDispatch(status string, seconds float64) {
	m.jobsTotal.WithLabelValues(status).Inc()
	m.jobsDuration.Observe(seconds)
}

// RecordDropped records a job dropped on enqueue.
func (m *Metrics) RecordDropped() {
	m.jobsDropped.Inc()
}
