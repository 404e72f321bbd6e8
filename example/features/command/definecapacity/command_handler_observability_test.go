package definecapacity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/features/command/definecapacity"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/shell"
	"github.com/AntonStoeckl/restock-eventsourcing-go/testutil/observability/testdoubles"
)

func Test_CommandHandler_Handle_WithObservability_RecordsSuccess(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	tracing := testdoubles.NewTracingCollectorSpy(true)
	handler, err := definecapacity.NewCommandHandler(
		memoryengine.NewEventStore(),
		definecapacity.WithMetrics(metrics),
		definecapacity.WithTracing(tracing),
	)
	require.NoError(t, err)

	// act
	_, err = handler.Handle(context.Background(), definecapacity.BuildCommand("lasagne", 100))

	// assert
	require.NoError(t, err)
	assert.True(t, metrics.HasDurationRecordForMetric(shell.CommandHandlerDurationMetric).
		WithLabel(shell.LogAttrCommandType, definecapacity.CommandType).
		WithStatus(shell.StatusSuccess).
		Assert())
	assert.True(t, tracing.HasSpanRecordForName(shell.SpanNameCommandHandle).WithStatus(shell.StatusSuccess).Assert())
}

func Test_CommandHandler_Handle_AppendFails_RecordsError(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	logger := testdoubles.NewContextualLoggerSpy(true)
	handler, err := definecapacity.NewCommandHandler(
		rejectingEventStore{err: errors.New("disk full")},
		definecapacity.WithMetrics(metrics),
		definecapacity.WithContextualLogger(logger),
	)
	require.NoError(t, err)

	// act
	_, err = handler.Handle(context.Background(), definecapacity.BuildCommand("lasagne", 100))

	// assert
	require.Error(t, err)
	assert.True(t, metrics.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).WithStatus(shell.StatusError).Assert())

	failures := logger.RecordsForLevel("error")
	require.Len(t, failures, 1)
	assert.Equal(t, shell.LogMsgCommandFailed, failures[0].Message)
	assert.Equal(t, "disk full", failures[0].Arg(shell.LogAttrError))
}
