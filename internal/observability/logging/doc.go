// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Run ID propagation
//   - Context-aware logging
//   - Secret masking for error strings
//
// Example usage:
//
//	import "repo-digest/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("digest started", slog.String("kind", "releases"))
//	}
//
//	func run(ctx context.Context) {
//	    ctx, logger := logging.WithRunID(ctx, slog.Default())
//	    logger.Info("processing targets")
//	}
package logging
