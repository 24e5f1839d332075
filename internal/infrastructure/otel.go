package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ServiceName identifies this service in trace exports.
	ServiceName    = "tirepulse-plantsync"
	ServiceVersion = "1.0.0"
	tracerName     = "tirepulse"
)

// OTelProviders holds the initialized tracing pieces and their shutdown.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	Tracer         trace.Tracer
}

// InitializeTracing sets up a stdout trace exporter and installs the
// global tracer provider and propagators. Sync runs create a span per
// file so slow stages show up in the traces.
func InitializeTracing(ctx context.Context, logger *slog.Logger) (*OTelProviders, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "tracing initialized",
		slog.String("service", ServiceName),
		slog.String("exporter", "stdout"))

	return &OTelProviders{
		TracerProvider: tp,
		Tracer:         tp.Tracer(tracerName),
	}, nil
}

// Shutdown flushes and stops the tracer provider.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p == nil || p.TracerProvider == nil {
		return nil
	}
	return p.TracerProvider.Shutdown(ctx)
}
