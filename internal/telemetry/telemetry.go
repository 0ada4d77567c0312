// Package telemetry installs the process-wide OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names accepted by Init.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Config selects the exporter and identifies the service in spans.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Exporter is "none" or "stdout".
	Exporter string

	// Writer receives stdout spans. Defaults to os.Stderr so spans never
	// interleave with JSON written to stdout.
	Writer io.Writer
}

// Init sets the global tracer provider. With ExporterNone the global no-op
// provider is left in place. The returned shutdown flushes pending spans
// and must be called on exit.
func Init(cfg Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Exporter {
	case "", ExporterNone:
		return noop, nil
	case ExporterStdout:
	default:
		return noop, fmt.Errorf("telemetry: unknown exporter %q", cfg.Exporter)
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return noop, fmt.Errorf("telemetry: create stdout exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
