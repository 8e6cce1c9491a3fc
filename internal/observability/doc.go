// Package observability groups the digest's logging, metrics and tracing.
//
// Subpackages:
//   - logging: slog construction, run IDs carried in context, secret masking
//   - metrics: Prometheus collectors for GitHub calls, digest runs and feed writes
//   - tracing: the OpenTelemetry tracer used for fetch and digest spans
//
// Example usage:
//
//	logger := logging.NewLogger()
//	ctx, logger = logging.WithRunID(ctx, logger)
//	logger.Info("digest run started")
//
//	metrics.RecordGitHubRequest("releases", metrics.Outcome(err), time.Since(start))
package observability
