/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tracing

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type TracerType string

const (
	None        TracerType = "none"
	Otlp        TracerType = "otlp"
	File        TracerType = "file"
	Console     TracerType = "console"
	ServiceName            = "vindecode"
)

type Config struct {
	Provider TracerType `mapstructure:"provider"`
	File     FileConfig `mapstructure:"file"`
	Otlp     OtlpConfig `mapstructure:"otlp"`
	// Sampling is the ratio of traces kept, 1 when zero
	Sampling float64 `mapstructure:"sampling"`
}

type FileConfig struct {
	Path string `mapstructure:"path"`
}

type OtlpConfig struct {
	// Address of the collector http endpoint, host:port
	Address string `mapstructure:"address"`
}

var logger = logging.MustGetLogger("vindecode.sdk.tracing")

type configService interface {
	UnmarshalKey(key string, rawVal interface{}) error
}

// NewTracerProvider reads the tracing section of the node configuration
func NewTracerProvider(confService configService, key string) (trace.TracerProvider, error) {
	c := Config{}
	if err := confService.UnmarshalKey(key, &c); err != nil {
		return nil, err
	}
	return NewTracerProviderFromConfig(c)
}

func NewTracerProviderFromConfig(c Config) (trace.TracerProvider, error) {
	switch c.Provider {
	case None:
		logger.Infof("No-op tracer provider selected")
		return NoopProvider()
	case Otlp:
		logger.Infof("OTLP tracer provider selected")
		return HttpProvider(&c.Otlp, c.Sampling)
	case File:
		logger.Infof("File tracing provider selected")
		return FileProvider(&c.File, c.Sampling)
	case Console:
		logger.Infof("Console tracing provider selected")
		return ConsoleProvider(c.Sampling)
	default:
		logger.Infof("No provider type passed. Default to no-op")
		return NoopProvider()
	}
}

func NoopProvider() (noop.TracerProvider, error) {
	logger.Infof("Tracing disabled")
	return noop.NewTracerProvider(), nil
}

func FileProvider(c *FileConfig, sampling float64) (*sdktrace.TracerProvider, error) {
	if c == nil || len(c.Path) == 0 {
		return nil, errors.New("filepath must not be empty")
	}
	f, err := os.Create(c.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open output file")
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(f))
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize stdouttrace")
	}
	return providerWithExporter(context.Background(), exporter, sampling)
}

func ConsoleProvider(sampling float64) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize stdouttrace")
	}
	return providerWithExporter(context.Background(), exporter, sampling)
}

func HttpProvider(c *OtlpConfig, sampling float64) (*sdktrace.TracerProvider, error) {
	if c == nil || len(c.Address) == 0 {
		return nil, errors.New("empty url")
	}
	exporter, err := otlptracehttp.New(context.Background(), otlptracehttp.WithInsecure(), otlptracehttp.WithEndpoint(c.Address))
	if err != nil {
		return nil, errors.Wrap(err, "failed creating trace exporter")
	}
	return providerWithExporter(context.Background(), exporter, sampling)
}

func providerWithExporter(ctx context.Context, exporter sdktrace.SpanExporter, sampling float64) (*sdktrace.TracerProvider, error) {
	r, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(ServiceName),
	))
	if err != nil {
		return nil, errors.WithMessage(err, "failed creating resource")
	}
	if sampling <= 0 || sampling > 1 {
		sampling = 1
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithExportTimeout(1*time.Second)),
		sdktrace.WithResource(r),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(sampling)),
	)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	otel.SetTracerProvider(tracerProvider)
	return tracerProvider, nil
}

// Shutdown flushes the spans of providers backed by an exporter
func Shutdown(ctx context.Context, tp trace.TracerProvider) error {
	if p, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
		return p.Shutdown(ctx)
	}
	return nil
}
