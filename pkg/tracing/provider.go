package tracing

import (
	"context"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/tracing/exporters"
	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config selects the span exporter. An empty Endpoint exports spans to the
// log at debug level.
type Config struct {
	ServiceName string
	Endpoint    string
	Protocol    string
	Insecure    bool
}

// Setup installs a tracer provider and returns its shutdown function.
func Setup(ctx context.Context, cfg Config, logger ectologger.Logger) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	if cfg.Endpoint == "" {
		exporter = exporters.NewConsoleExporter(logger)
	} else {
		otlpExporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.Endpoint,
			Protocol: exporters.Protocol(cfg.Protocol),
			Insecure: cfg.Insecure,
		})
		if err != nil {
			logger.WithContext(ctx).WithError(err).Error("Failed to create OTLP exporter")
			return nil, err
		}
		exporter = otlpExporter
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	SetTracer(provider.Tracer(cfg.ServiceName))

	return provider.Shutdown, nil
}
