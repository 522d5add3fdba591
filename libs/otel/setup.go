package otelx

import (
	"context"
	"strconv"
	"time"

	"github.com/md-rashed-zaman/meetmatch/libs/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	OTLPEndpoint   string // host:port of an OTLP gRPC collector
	Insecure       bool
	SampleRatio    float64
}

// ConfigFromEnv reads the OTEL_* variables. A sampling ratio outside [0, 1]
// is ignored.
func ConfigFromEnv(serviceName string) Config {
	cfg := Config{
		Enabled:        config.Bool("OTEL_ENABLED", true),
		ServiceName:    serviceName,
		ServiceVersion: config.String("SERVICE_VERSION", ""),
		OTLPEndpoint:   config.String("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317"),
		Insecure:       config.Bool("OTEL_EXPORTER_OTLP_INSECURE", true),
		SampleRatio:    1,
	}
	if f, err := strconv.ParseFloat(config.String("OTEL_SAMPLING_RATIO", ""), 64); err == nil && f >= 0 && f <= 1 {
		cfg.SampleRatio = f
	}
	return cfg
}

// Setup installs the global propagator and, when enabled, an OTLP tracer provider.
// The returned func flushes and stops the provider.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithTimeout(3 * time.Second),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(cfg.ServiceName))}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
