package oteladapters_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/oteladapters"
)

func Test_MetricsCollector_RecordDuration_RecordsSecondsHistogram(t *testing.T) {
	// arrange
	reader, collector := givenMetricsCollector()

	// act
	collector.RecordDuration("eventstore_query_duration_seconds", 150*time.Millisecond, map[string]string{
		"operation": "query",
		"status":    "success",
	})

	// assert
	found := findMetric(t, collect(t, reader), "eventstore_query_duration_seconds")
	histogram, ok := found.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected a float64 histogram, got %T", found.Data)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.15, histogram.DataPoints[0].Sum, 0.001)
	assert.Equal(t, "s", found.Unit)

	expected := attribute.NewSet(attribute.String("operation", "query"), attribute.String("status", "success"))
	assert.True(t, histogram.DataPoints[0].Attributes.Equals(&expected))
}

func Test_MetricsCollector_IncrementCounterContext_Sums(t *testing.T) {
	// arrange
	reader, collector := givenMetricsCollector()
	labels := map[string]string{"operation": "append", "error_type": "database_exec"}

	// act
	collector.IncrementCounterContext(context.Background(), "eventstore_errors_total", labels)
	collector.IncrementCounter("eventstore_errors_total", labels)

	// assert
	found := findMetric(t, collect(t, reader), "eventstore_errors_total")
	sum, ok := found.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", found.Data)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue_KeepsLastValue(t *testing.T) {
	// arrange
	reader, collector := givenMetricsCollector()
	labels := map[string]string{"operation": "query"}

	// act
	collector.RecordValue("eventstore_events_queried_total", 3, labels)
	collector.RecordValueContext(context.Background(), "eventstore_events_queried_total", 7, labels)

	// assert
	found := findMetric(t, collect(t, reader), "eventstore_events_queried_total")
	gauge, ok := found.Data.(metricdata.Gauge[float64])
	require.True(t, ok, "expected a float64 gauge, got %T", found.Data)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, float64(7), gauge.DataPoints[0].Value)
}

func givenMetricsCollector() (*sdkmetric.ManualReader, *oteladapters.MetricsCollector) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return reader, oteladapters.NewMetricsCollector(provider.Meter("test"))
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	return resourceMetrics
}

func findMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, scope := range resourceMetrics.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	require.FailNow(t, "metric not found", name)

	return metricdata.Metrics{}
}
