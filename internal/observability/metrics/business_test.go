package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"repo-digest/internal/domain/entity"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: OutcomeSuccess},
		{name: "auth", err: fmt.Errorf("octo/hello: %w", entity.ErrAuth), expected: OutcomeAuth},
		{name: "query", err: entity.ErrQuery, expected: OutcomeQuery},
		{name: "transient", err: fmt.Errorf("max retry attempts (10) exceeded: %w", entity.ErrTransient), expected: OutcomeTransient},
		{name: "canceled", err: context.Canceled, expected: OutcomeCanceled},
		{name: "deadline", err: fmt.Errorf("retry aborted: %w", context.DeadlineExceeded), expected: OutcomeCanceled},
		{name: "other", err: errors.New("boom"), expected: OutcomeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Outcome(tt.err))
		})
	}
}

func TestRecordGitHubRequest(t *testing.T) {
	before := testutil.ToFloat64(GitHubRequestsTotal.WithLabelValues("activity", OutcomeTransient))

	RecordGitHubRequest("activity", OutcomeTransient, 250*time.Millisecond)

	after := testutil.ToFloat64(GitHubRequestsTotal.WithLabelValues("activity", OutcomeTransient))
	assert.Equal(t, before+1, after)
}

func TestRecordGitHubRetry(t *testing.T) {
	before := testutil.ToFloat64(GitHubRetriesTotal.WithLabelValues("releases"))

	RecordGitHubRetry("releases")
	RecordGitHubRetry("releases")

	assert.Equal(t, before+2, testutil.ToFloat64(GitHubRetriesTotal.WithLabelValues("releases")))
}

func TestRecordDigestRun(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 5, 0, 0, time.UTC)

	t.Run("success moves last success timestamp", func(t *testing.T) {
		kind := "test-success"
		RecordDigestRun(RunSummary{Kind: kind, Targets: 2, Succeeded: 2, Entries: 1, Duration: time.Second}, now)

		assert.Equal(t, float64(1), testutil.ToFloat64(DigestRunsTotal.WithLabelValues(kind, "success")))
		assert.Equal(t, float64(2), testutil.ToFloat64(DigestTargetsTotal.WithLabelValues(kind, "succeeded")))
		assert.Equal(t, float64(1), testutil.ToFloat64(DigestEntriesTotal.WithLabelValues(kind)))
		assert.Equal(t, float64(now.Unix()), testutil.ToFloat64(DigestLastSuccessTimestamp.WithLabelValues(kind)))
	})

	t.Run("partial failure", func(t *testing.T) {
		kind := "test-partial"
		RecordDigestRun(RunSummary{Kind: kind, Targets: 3, Succeeded: 2, Failed: 1}, now)

		assert.Equal(t, float64(1), testutil.ToFloat64(DigestRunsTotal.WithLabelValues(kind, "partial")))
		assert.Equal(t, float64(1), testutil.ToFloat64(DigestTargetsTotal.WithLabelValues(kind, "failed")))
		assert.Equal(t, float64(0), testutil.ToFloat64(DigestLastSuccessTimestamp.WithLabelValues(kind)))
	})

	t.Run("aborted", func(t *testing.T) {
		kind := "test-aborted"
		RecordDigestRun(RunSummary{Kind: kind, Targets: 3, Failed: 1, Aborted: true}, now)

		assert.Equal(t, float64(1), testutil.ToFloat64(DigestRunsTotal.WithLabelValues(kind, "aborted")))
	})
}

func TestRecordBucketItems(t *testing.T) {
	before := testutil.ToFloat64(DigestBucketItemsTotal.WithLabelValues("issues_created"))

	RecordBucketItems("issues_created", 3)
	RecordBucketItems("issues_created", 0)

	assert.Equal(t, before+3, testutil.ToFloat64(DigestBucketItemsTotal.WithLabelValues("issues_created")))
}

func TestRecordFeedWrite(t *testing.T) {
	beforeOK := testutil.ToFloat64(FeedWritesTotal.WithLabelValues("target", "success"))
	beforeFail := testutil.ToFloat64(FeedWritesTotal.WithLabelValues("target", "failure"))

	RecordFeedWrite("target", 1024, nil)
	RecordFeedWrite("target", 0, errors.New("disk full"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(FeedWritesTotal.WithLabelValues("target", "success")))
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(FeedWritesTotal.WithLabelValues("target", "failure")))
}
