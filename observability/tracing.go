package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/hupe1980/agenthive"

// TracingOptions configures Setup.
type TracingOptions struct {
	// Enabled installs an SDK tracer provider; otherwise a noop provider is used.
	Enabled bool
	// Exporter selects the span exporter: "stdout" (default) or "noop".
	Exporter string
	// PrettyPrint indents stdout spans.
	PrettyPrint bool
}

// SetupTracing installs a global tracer provider and returns its shutdown function.
func SetupTracing(ctx context.Context, optFns ...func(o *TracingOptions)) (func(context.Context) error, error) {
	opts := TracingOptions{Exporter: "stdout", PrettyPrint: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	noopShutdown := func(context.Context) error { return nil }
	if !opts.Enabled || opts.Exporter == "noop" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return noopShutdown, nil
	}

	var exporter sdktrace.SpanExporter
	switch opts.Exporter {
	case "stdout", "":
		var exportOpts []stdouttrace.Option
		if opts.PrettyPrint {
			exportOpts = append(exportOpts, stdouttrace.WithPrettyPrint())
		}
		exp, err := stdouttrace.New(exportOpts...)
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", opts.Exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// StartSpan starts a span on the globally installed provider.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan sets the span status from err and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
