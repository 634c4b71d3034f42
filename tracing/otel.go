package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// OTLPConfig configures export to an OpenTelemetry collector.
type OTLPConfig struct {
	// Enabled controls whether spans are shipped to a collector.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g. "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows plaintext connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Environment tags exported spans (development, staging, production).
	Environment string `yaml:"environment" mapstructure:"environment"`
}

// ApplyDefaults sets sensible defaults.
func (c *OTLPConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

// OTLPExporter replays finished gateway spans into an OpenTelemetry
// pipeline. The gateway keeps its own span identifiers for header
// propagation; the originals are carried as attributes so a collector
// can still correlate both views of the same trace.
type OTLPExporter struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewOTLPExporter builds an exporter shipping to the configured collector.
func NewOTLPExporter(ctx context.Context, serviceName, serviceVersion string, cfg OTLPConfig) (*OTLPExporter, error) {
	cfg.ApplyDefaults()

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	return &OTLPExporter{
		provider: tp,
		tracer:   tp.Tracer(serviceName),
	}, nil
}

// Export mirrors a finished span into the OTLP pipeline with its original
// timestamps, tags, and logs.
func (e *OTLPExporter) Export(span *Span) {
	attrs := []attribute.KeyValue{
		attribute.String("gateway.trace_id", span.TraceID),
		attribute.String("gateway.span_id", span.SpanID),
		attribute.String("service.component", span.ServiceName),
	}
	if span.ParentSpanID != "" {
		attrs = append(attrs, attribute.String("gateway.parent_span_id", span.ParentSpanID))
	}
	for k, v := range span.Tags {
		attrs = append(attrs, anyAttribute(k, v))
	}

	_, ospan := e.tracer.Start(context.Background(), span.OperationName,
		trace.WithTimestamp(span.StartTime),
		trace.WithAttributes(attrs...),
	)

	for _, l := range span.Logs {
		evAttrs := []attribute.KeyValue{attribute.String("level", l.Level)}
		for k, v := range l.Fields {
			evAttrs = append(evAttrs, anyAttribute(k, v))
		}
		ospan.AddEvent(l.Message, trace.WithTimestamp(l.Timestamp), trace.WithAttributes(evAttrs...))
	}

	if span.Status == StatusError {
		ospan.SetStatus(codes.Error, span.OperationName)
	} else {
		ospan.SetStatus(codes.Ok, "")
	}

	ospan.End(trace.WithTimestamp(span.EndTime))
}

// Shutdown flushes buffered spans and stops the provider.
func (e *OTLPExporter) Shutdown(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}

func anyAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
