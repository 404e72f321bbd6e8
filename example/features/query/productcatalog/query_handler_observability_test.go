package productcatalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/features/query/productcatalog"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/shell"
	"github.com/AntonStoeckl/restock-eventsourcing-go/testutil/observability/testdoubles"
)

func Test_QueryHandler_Handle_WithObservability(t *testing.T) {
	// arrange
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	tracing := testdoubles.NewTracingCollectorSpy(true)
	store := memoryengine.NewEventStore(memoryengine.WithInitialEvents(toStorableEvents(t,
		core.BuildProductAdded("lasagne", now),
	)...))

	handler, err := productcatalog.NewQueryHandler(
		store,
		productcatalog.WithMetrics(metrics),
		productcatalog.WithTracing(tracing),
	)
	require.NoError(t, err)

	// act
	_, err = handler.Handle(context.Background(), productcatalog.BuildQuery())

	// assert
	require.NoError(t, err)
	assert.True(t, metrics.HasDurationRecordForMetric(shell.QueryHandlerDurationMetric).
		WithLabel(shell.LogAttrQueryType, "ProductCatalog").
		WithStatus(shell.StatusSuccess).
		Assert())
	assert.Equal(t, 1, metrics.CountRecordsForMetric(shell.QueryHandlerCallsMetric))
	assert.True(t, tracing.HasSpanRecordForName(shell.SpanNameQueryHandle).
		WithStartAttribute(shell.LogAttrQueryType, "ProductCatalog").
		WithStatus(shell.StatusSuccess).
		Assert())
}

func Test_QueryHandler_Handle_DeadlineExceeded_RecordsTimeout(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	handler, err := productcatalog.NewQueryHandler(
		failingEventStore{err: context.DeadlineExceeded},
		productcatalog.WithMetrics(metrics),
	)
	require.NoError(t, err)

	// act
	_, err = handler.Handle(context.Background(), productcatalog.BuildQuery())

	// assert
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, metrics.HasCounterRecordForMetric(shell.QueryHandlerTimeoutMetric).WithStatus(shell.StatusTimeout).Assert())
	assert.False(t, metrics.HasCounterRecordForMetric(shell.QueryHandlerCanceledMetric).Assert())
}
