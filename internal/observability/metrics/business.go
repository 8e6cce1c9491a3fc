package metrics

import (
	"context"
	"errors"
	"time"

	"repo-digest/internal/domain/entity"
)

// Request outcomes used as the "outcome" label.
const (
	OutcomeSuccess   = "success"
	OutcomeTransient = "transient"
	OutcomeAuth      = "auth"
	OutcomeQuery     = "query"
	OutcomeRejected  = "rejected"
	OutcomeCanceled  = "canceled"
	OutcomeOther     = "other"
)

// Outcome classifies err for the "outcome" label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, entity.ErrAuth):
		return OutcomeAuth
	case errors.Is(err, entity.ErrQuery):
		return OutcomeQuery
	case errors.Is(err, entity.ErrTransient):
		return OutcomeTransient
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeOther
	}
}

// RecordGitHubRequest records one GraphQL round trip.
func RecordGitHubRequest(operation, outcome string, duration time.Duration) {
	GitHubRequestsTotal.WithLabelValues(operation, outcome).Inc()
	GitHubRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordGitHubRetry records one scheduled retry.
func RecordGitHubRetry(operation string) {
	GitHubRetriesTotal.WithLabelValues(operation).Inc()
}

// RunSummary is the outcome of one digest run.
type RunSummary struct {
	Kind      string
	Targets   int
	Succeeded int
	Failed    int
	Entries   int
	Aborted   bool
	Duration  time.Duration
}

// RecordDigestRun records the summary of one digest run.
//
// A run with no failed targets also moves DigestLastSuccessTimestamp to now.
func RecordDigestRun(summary RunSummary, now time.Time) {
	status := "success"
	switch {
	case summary.Aborted:
		status = "aborted"
	case summary.Failed > 0:
		status = "partial"
	}

	DigestRunsTotal.WithLabelValues(summary.Kind, status).Inc()
	DigestRunDuration.WithLabelValues(summary.Kind).Observe(summary.Duration.Seconds())
	DigestTargetsTotal.WithLabelValues(summary.Kind, "succeeded").Add(float64(summary.Succeeded))
	DigestTargetsTotal.WithLabelValues(summary.Kind, "failed").Add(float64(summary.Failed))
	DigestEntriesTotal.WithLabelValues(summary.Kind).Add(float64(summary.Entries))

	if status == "success" {
		DigestLastSuccessTimestamp.WithLabelValues(summary.Kind).Set(float64(now.Unix()))
	}
}

// RecordBucketItems records how many nodes landed in a bucket.
func RecordBucketItems(bucket string, count int) {
	if count <= 0 {
		return
	}
	DigestBucketItemsTotal.WithLabelValues(bucket).Add(float64(count))
}

// RecordFeedWrite records one feed file write. Scope is "target" or "consolidated".
func RecordFeedWrite(scope string, size int, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	FeedWritesTotal.WithLabelValues(scope, status).Inc()
	if err == nil {
		FeedBytesWritten.Observe(float64(size))
	}
}
