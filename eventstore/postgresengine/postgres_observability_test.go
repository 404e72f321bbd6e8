package postgresengine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/testutil/observability/testdoubles"
)

func Test_Query_WithObservability_RecordsSuccess(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	tracing := testdoubles.NewTracingCollectorSpy(true)
	db := &fakeAdapter{
		rows: []fakeRow{{eventType: "add_product", occurredAt: time.Unix(0, 0).UTC(), payload: `{"ProductID":"a"}`, metadata: `{}`}},
	}
	es := givenEventStore(t, db, WithMetrics(metrics), WithTracing(tracing))

	// act
	_, err := es.Query(context.Background(), eventstore.BuildEventFilter().MatchingAnyEvent())

	// assert
	require.NoError(t, err)
	assert.True(t, metrics.HasDurationRecordForMetric("eventstore_query_duration_seconds").
		WithOperation("query").
		WithStatus("success").
		Assert())
	assert.True(t, metrics.HasValueRecordForMetric("eventstore_events_queried_total").WithValue(1).Assert())
	assert.True(t, tracing.HasSpanRecordForName("eventstore.query").
		WithStatus("success").
		WithStartAttribute("operation", "query").
		WithStartAttribute("engine", "postgres").
		Assert())
}

func Test_Query_WithTracing_PassesSpanContextToAdapter(t *testing.T) {
	// arrange
	tracing := testdoubles.NewTracingCollectorSpy(true)
	db := &fakeAdapter{}
	es := givenEventStore(t, db, WithTracing(tracing))

	// act
	_, err := es.Query(context.Background(), eventstore.BuildEventFilter().MatchingAnyEvent())

	// assert
	require.NoError(t, err)
	require.Len(t, db.contexts, 1)
	spanName, ok := testdoubles.SpanNameFromContext(db.contexts[0])
	require.True(t, ok)
	assert.Equal(t, "eventstore.query", spanName)
}

func Test_Query_WithMetrics_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name      string
		db        *fakeAdapter
		errorType string
	}{
		{"query fails", &fakeAdapter{queryErr: errors.New("connection refused")}, "database_query"},
		{"scan fails", &fakeAdapter{rows: []fakeRow{{}}, scanErr: errors.New("bad column")}, "row_scan"},
		{"invalid payload", &fakeAdapter{rows: []fakeRow{{eventType: "x", payload: "{", metadata: "{}"}}}, "build_storable_event"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			metrics := testdoubles.NewMetricsCollectorSpy(true)
			es := givenEventStore(t, tc.db, WithMetrics(metrics))

			_, err := es.Query(context.Background(), eventstore.BuildEventFilter().MatchingAnyEvent())

			require.Error(t, err)
			assert.True(t, metrics.HasCounterRecordForMetric("eventstore_errors_total").
				WithOperation("query").
				WithErrorType(tc.errorType).
				Assert())
			assert.True(t, metrics.HasDurationRecordForMetric("eventstore_query_duration_seconds").WithStatus("error").Assert())
		})
	}
}

func Test_Append_WithObservability_RecordsSuccessAndErrors(t *testing.T) {
	event := givenStorableEvent(t, "restock_ordered", time.Unix(0, 0).UTC(), `{"ProductID":"a","Quantity":5}`)

	tests := []struct {
		name      string
		db        *fakeAdapter
		status    string
		errorType string
	}{
		{"success", &fakeAdapter{rowsAffected: 1}, "success", ""},
		{"exec fails", &fakeAdapter{execErr: errors.New("disk full")}, "error", "database_exec"},
		{"fewer rows inserted", &fakeAdapter{rowsAffected: 0}, "error", "rows_affected"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			metrics := testdoubles.NewMetricsCollectorSpy(true)
			tracing := testdoubles.NewTracingCollectorSpy(true)
			logger := testdoubles.NewContextualLoggerSpy(true)
			es := givenEventStore(t, tc.db, WithMetrics(metrics), WithTracing(tracing), WithContextualLogger(logger))

			_ = es.Append(context.Background(), event)

			assert.True(t, metrics.HasDurationRecordForMetric("eventstore_append_duration_seconds").
				WithOperation("append").
				WithStatus(tc.status).
				Assert())
			assert.True(t, tracing.HasSpanRecordForName("eventstore.append").
				WithStatus(tc.status).
				WithStartAttribute("event_type", "restock_ordered").
				Assert())

			if tc.errorType == "" {
				assert.True(t, metrics.HasValueRecordForMetric("eventstore_events_appended_total").WithValue(1).Assert())
				assert.True(t, logger.HasRecord("info", "eventstore operation: append completed"))
				return
			}

			assert.True(t, metrics.HasCounterRecordForMetric("eventstore_errors_total").WithErrorType(tc.errorType).Assert())
			assert.True(t, logger.HasRecord("error", "eventstore operation: append failed"))
		})
	}
}

func Test_Clear_WithTracing_RecordsSpan(t *testing.T) {
	tracing := testdoubles.NewTracingCollectorSpy(true)
	es := givenEventStore(t, &fakeAdapter{execErr: errors.New("permission denied")}, WithTracing(tracing))

	err := es.Clear(context.Background())

	require.Error(t, err)
	assert.True(t, tracing.HasSpanRecordForName("eventstore.clear").
		WithStatus("error").
		WithEndAttribute("error_type", "database_exec").
		Assert())
}
