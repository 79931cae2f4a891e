package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golddigest_requests_total",
			Help: "Total number of requests per endpoint",
		},
		[]string{"endpoint"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "golddigest_request_duration_seconds",
			Help:    "Request duration in seconds per endpoint",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golddigest_request_errors_total",
			Help: "Total number of error responses per endpoint and status code",
		},
		[]string{"endpoint", "code"},
	)

	UpstreamFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golddigest_upstream_fallbacks_total",
			Help: "Upstream fetches that were replaced by a fallback value, per source",
		},
		[]string{"source"},
	)

	DigestBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golddigest_digest_builds_total",
			Help: "Digests served, by content source (ai or fallback-static)",
		},
		[]string{"source"},
	)

	EmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golddigest_emails_total",
			Help: "Digest emails attempted per provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
)

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "golddigest_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "golddigest_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golddigest_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

// UpdateJobMetrics records the outcome of a triggered job run.
func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}

// ObserveRequest records one served request.
func ObserveRequest(endpoint string, status int, startedAt time.Time) {
	RequestsTotal.WithLabelValues(endpoint).Inc()
	RequestDurationSeconds.WithLabelValues(endpoint).Observe(time.Since(startedAt).Seconds())
	if status >= 400 {
		RequestErrorsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	}
}
