// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created through the global tracer provider. Without an installed
// provider they are no-ops; tests install an in-memory exporter.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "fetch.activity")
//	defer span.End()
//	if err != nil {
//	    tracing.RecordError(span, err)
//	}
package tracing
