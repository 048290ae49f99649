package observability

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/iiresodh/prequal-api/internal/config"
)

const (
	tracerName = "iiresodh/prequal-api"
)

// Setup installs the OTLP trace pipeline when tracing is enabled. The
// returned function flushes and shuts the provider down; it is a no-op when
// tracing is disabled.
func Setup(ctx context.Context, cfg *config.Config, log zerolog.Logger) (func(context.Context) error, error) {
	if !cfg.EnableTracing {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracehttp.Option{}
	if cfg.OTLPEndpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	log.Info().Str("endpoint", cfg.OTLPEndpoint).Msg("tracing enabled")

	return provider.Shutdown, nil
}

// GetTracer returns the tracer for the prequalification service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// AnalysisAttributes returns common attributes for analysis spans.
func AnalysisAttributes(userID, countryCode string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("analysis.user_id", userID),
		attribute.String("analysis.country_code", countryCode),
	}
}

// StartAnalysisSpan starts a new span covering one streamed analysis.
func StartAnalysisSpan(ctx context.Context, userID, countryCode string) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "analysis.stream",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AnalysisAttributes(userID, countryCode)...),
	)
	return ctx, span
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
