// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - GitHub API request metrics (count by outcome, duration, retries)
//   - Digest run metrics (runs, targets, entries, bucket sizes)
//   - Feed file write metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the worker's /metrics endpoint.
//
// Example usage:
//
//	import "repo-digest/internal/observability/metrics"
//
//	func fetch(ctx context.Context) {
//	    start := time.Now()
//	    _, err := client.FetchReleases(ctx, target)
//	    metrics.RecordGitHubRequest("releases", metrics.Outcome(err), time.Since(start))
//	}
package metrics
