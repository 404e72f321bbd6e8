package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/oteladapters"
)

// Trace exporters selectable with RESTOCK_OTEL_TRACES.
const (
	TracesNone   = "none"
	TracesStdout = "stdout"
	TracesOTLP   = "otlp"
)

const instrumentationName = "github.com/AntonStoeckl/restock-eventsourcing-go"

// Telemetry owns the OpenTelemetry providers of one process and the collectors built on them.
type Telemetry struct {
	Metrics        *oteladapters.MetricsCollector
	Tracing        *oteladapters.TracingCollector
	reader         *sdkmetric.ManualReader
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// MetricPoint is one collected data point, flattened for printing.
type MetricPoint struct {
	Name   string
	Labels string
	Value  float64
}

// SetupTelemetry builds the tracer and meter providers selected by the Config.
// Spans are always recorded, so logs carry trace IDs even when no exporter is configured.
// Stdout traces are written to traceOut.
func SetupTelemetry(ctx context.Context, cfg Config, traceOut io.Writer) (*Telemetry, error) {
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	tracerOptions := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	exporter, err := buildTraceExporter(ctx, cfg, traceOut)
	if err != nil {
		return nil, fmt.Errorf("build trace exporter: %w", err)
	}

	if exporter != nil {
		tracerOptions = append(tracerOptions, sdktrace.WithBatcher(exporter))
	}

	reader := sdkmetric.NewManualReader()
	t := &Telemetry{
		reader:         reader,
		tracerProvider: sdktrace.NewTracerProvider(tracerOptions...),
		meterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res)),
	}

	t.Metrics = oteladapters.NewMetricsCollector(t.meterProvider.Meter(instrumentationName))
	t.Tracing = oteladapters.NewTracingCollector(t.tracerProvider.Tracer(instrumentationName))

	return t, nil
}

func buildTraceExporter(ctx context.Context, cfg Config, traceOut io.Writer) (sdktrace.SpanExporter, error) {
	switch cfg.OTelTraces {
	case TracesStdout:
		return stdouttrace.New(stdouttrace.WithWriter(traceOut), stdouttrace.WithPrettyPrint())

	case TracesOTLP:
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTelEndpoint))

	default:
		return nil, nil //nolint:nilnil
	}
}

// CollectMetrics reads the current value of every counter and gauge, and the sum of every histogram.
// Points are sorted by name and labels.
func (t *Telemetry) CollectMetrics(ctx context.Context) ([]MetricPoint, error) {
	var collected metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &collected); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}

	points := make([]MetricPoint, 0)

	for _, scope := range collected.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					points = append(points, MetricPoint{Name: m.Name, Labels: formatLabels(dp.Attributes), Value: float64(dp.Value)})
				}

			case metricdata.Gauge[float64]:
				for _, dp := range data.DataPoints {
					points = append(points, MetricPoint{Name: m.Name, Labels: formatLabels(dp.Attributes), Value: dp.Value})
				}

			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					points = append(points, MetricPoint{Name: m.Name, Labels: formatLabels(dp.Attributes), Value: dp.Sum})
				}
			}
		}
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Name != points[j].Name {
			return points[i].Name < points[j].Name
		}

		return points[i].Labels < points[j].Labels
	})

	return points, nil
}

// Shutdown flushes pending spans and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(t.tracerProvider.Shutdown(ctx), t.meterProvider.Shutdown(ctx))
}

func formatLabels(set attribute.Set) string {
	return set.Encoded(attribute.DefaultEncoder())
}
