// Package tracing sets up the OpenTelemetry tracer provider,
// exporting spans via OTLP/HTTP when an endpoint is configured and
// falling back to an always-sample, export-nothing provider otherwise
// so span.Start/End calls elsewhere in the codebase never need a nil
// check.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Config controls exporter setup.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string // empty disables the OTLP exporter
}

// Shutdown flushes and stops the tracer provider. Safe to call even if
// Setup returned an error.
type Shutdown func(ctx context.Context) error

// Setup installs the global TracerProvider and returns its Shutdown.
// A failure to reach the OTLP collector degrades to an un-exported
// provider rather than failing startup - tracing is diagnostic, never
// load-bearing.
func Setup(ctx context.Context, cfg Config) (Shutdown, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build tracing resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}

	if cfg.OTLPEndpoint != "" {
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return func(context.Context) error { return nil }, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

// Tracer returns the named tracer from the global provider. Call sites
// in the ledger and webhook packages use this directly rather than
// threading a *trace.Tracer through every constructor.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
