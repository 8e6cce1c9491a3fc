// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GitHub API metrics track round trips to the GraphQL endpoint
var (
	// GitHubRequestsTotal counts GraphQL round trips by operation and outcome
	GitHubRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "github_requests_total",
			Help: "Total number of GitHub GraphQL requests",
		},
		[]string{"operation", "outcome"},
	)

	// GitHubRequestDuration measures GraphQL round trip duration in seconds
	GitHubRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "github_request_duration_seconds",
			Help:    "GitHub GraphQL request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// GitHubRetriesTotal counts scheduled retries by operation
	GitHubRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "github_retries_total",
			Help: "Total number of retries scheduled after transient GitHub failures",
		},
		[]string{"operation"},
	)
)

// Digest metrics track run outcomes
var (
	// DigestRunsTotal counts digest runs by kind and status
	DigestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_runs_total",
			Help: "Total number of digest runs",
		},
		[]string{"kind", "status"},
	)

	// DigestRunDuration measures end-to-end run duration in seconds
	DigestRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_run_duration_seconds",
			Help:    "Digest run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"kind"},
	)

	// DigestTargetsTotal counts processed repositories by kind and status
	DigestTargetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_targets_total",
			Help: "Total number of repositories processed",
		},
		[]string{"kind", "status"},
	)

	// DigestEntriesTotal counts synthesized digest entries by kind
	DigestEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_entries_total",
			Help: "Total number of digest entries produced",
		},
		[]string{"kind"},
	)

	// DigestBucketItemsTotal counts classified nodes by bucket
	DigestBucketItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_bucket_items_total",
			Help: "Total number of activity nodes classified into each bucket",
		},
		[]string{"bucket"},
	)

	// DigestLastSuccessTimestamp is the Unix time of the last run with no failures
	DigestLastSuccessTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "digest_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last fully successful digest run",
		},
		[]string{"kind"},
	)
)

// Feed output metrics
var (
	// FeedWritesTotal counts feed file writes by scope and status
	FeedWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_writes_total",
			Help: "Total number of feed files written",
		},
		[]string{"scope", "status"},
	)

	// FeedBytesWritten measures the size of written feed files
	FeedBytesWritten = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_bytes_written",
			Help:    "Size of written feed files in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
	)
)
