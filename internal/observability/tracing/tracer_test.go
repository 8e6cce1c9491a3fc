package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(sdktrace.NewTracerProvider()) })
	return exporter, tp
}

func TestGetTracer_RecordsSpans(t *testing.T) {
	exporter, tp := installRecorder(t)

	_, span := GetTracer().Start(context.Background(), "digest.run")
	span.End()
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "digest.run" {
		t.Errorf("expected span name 'digest.run', got %q", spans[0].Name)
	}
	if spans[0].InstrumentationScope.Name != "repo-digest" {
		t.Errorf("expected scope 'repo-digest', got %q", spans[0].InstrumentationScope.Name)
	}
}

func TestRecordError(t *testing.T) {
	exporter, tp := installRecorder(t)

	_, span := GetTracer().Start(context.Background(), "fetch.releases")
	RecordError(span, errors.New("github: HTTP 502: Bad Gateway"))
	span.End()

	_, ok := GetTracer().Start(context.Background(), "fetch.activity")
	RecordError(ok, nil)
	ok.End()
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status.Code)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected an exception event on the failed span")
	}
	if spans[1].Status.Code == codes.Error {
		t.Error("nil error must not mark the span as failed")
	}
}
