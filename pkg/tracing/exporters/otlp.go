package exporters

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type Protocol string

const (
	ProtocolGRPC Protocol = "grpc"
	ProtocolHTTP Protocol = "http"

	exportTimeout = 10 * time.Second
)

// DefaultEndpoint is the collector's standard local port for the protocol.
func (p Protocol) DefaultEndpoint() string {
	if p == ProtocolHTTP {
		return "localhost:4318"
	}
	return "localhost:4317"
}

// OTLPConfig points span export at an OTLP collector.
type OTLPConfig struct {
	Endpoint string
	Protocol Protocol
	// Insecure disables TLS for local collectors.
	Insecure bool
}

func (c OTLPConfig) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return c.Protocol.DefaultEndpoint()
}

// NewOTLPExporter builds the exporter for cfg.Protocol. An empty protocol
// means grpc.
func NewOTLPExporter(ctx context.Context, cfg OTLPConfig) (*otlptrace.Exporter, error) {
	if cfg.Protocol == "" {
		cfg.Protocol = ProtocolGRPC
	}

	switch cfg.Protocol {
	case ProtocolGRPC:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.endpoint()),
			otlptracegrpc.WithTimeout(exportTimeout),
		}
		if cfg.Insecure {
			opts = append(opts,
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			)
		}
		return otlptracegrpc.New(ctx, opts...)
	case ProtocolHTTP:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(cfg.endpoint()),
			otlptracehttp.WithTimeout(exportTimeout),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q for span export", cfg.Protocol)
	}
}
