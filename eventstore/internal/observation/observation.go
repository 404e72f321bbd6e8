// Package observation records metrics, tracing spans, and contextual log lines for the event store engines.
//
// Every engine operation starts an Observer and ends it with exactly one of Succeed or Fail.
// All collectors are optional; an Observer without any of them does nothing.
package observation

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
)

// Metric names shared by all engines.
const (
	MetricQueryDuration  = "eventstore_query_duration_seconds"
	MetricEventsQueried  = "eventstore_events_queried_total"
	MetricAppendDuration = "eventstore_append_duration_seconds"
	MetricEventsAppended = "eventstore_events_appended_total"
	MetricClearDuration  = "eventstore_clear_duration_seconds"
	MetricErrors         = "eventstore_errors_total"
)

// Span names, one per operation.
const (
	SpanNameQuery  = "eventstore.query"
	SpanNameAppend = "eventstore.append"
	SpanNameClear  = "eventstore.clear"
)

// Operations, used as the "operation" label and span attribute.
const (
	OperationQuery  = "query"
	OperationAppend = "append"
	OperationClear  = "clear"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error types, used as the "error_type" label and span attribute.
const (
	ErrorTypeBuildQuery     = "build_query"
	ErrorTypeDatabaseQuery  = "database_query"
	ErrorTypeDatabaseExec   = "database_exec"
	ErrorTypeRowScan        = "row_scan"
	ErrorTypeBuildEvent     = "build_storable_event"
	ErrorTypeRowsAffected   = "rows_affected"
	ErrorTypeFileIO         = "file_io"
	ErrorTypeEncode         = "encode"
	ErrorTypeContextStopped = "context_stopped"
)

const (
	AttrOperation  = "operation"
	AttrStatus     = "status"
	AttrEngine     = "engine"
	AttrEventCount = "event_count"
	AttrEventType  = "event_type"
	AttrErrorType  = "error_type"
	AttrDurationMS = "duration_ms"

	logMsgOperation = "eventstore operation: "
	logMsgSucceeded = " completed"
	logMsgFailed    = " failed"
)

var (
	spanNames = map[string]string{
		OperationQuery:  SpanNameQuery,
		OperationAppend: SpanNameAppend,
		OperationClear:  SpanNameClear,
	}

	durationMetrics = map[string]string{
		OperationQuery:  MetricQueryDuration,
		OperationAppend: MetricAppendDuration,
		OperationClear:  MetricClearDuration,
	}

	eventCountMetrics = map[string]string{
		OperationQuery:  MetricEventsQueried,
		OperationAppend: MetricEventsAppended,
	}
)

// Instruments bundles the optional collectors of one engine.
type Instruments struct {
	Metrics          eventstore.MetricsCollector
	Tracing          eventstore.TracingCollector
	ContextualLogger eventstore.ContextualLogger
}

// Observer tracks one running engine operation.
type Observer struct {
	instruments Instruments
	ctx         context.Context
	engine      string
	operation   string
	span        eventstore.SpanContext
	start       time.Time
}

// Start begins observing an operation and returns the context to run it with,
// which carries the span if a TracingCollector is configured.
func (i Instruments) Start(
	ctx context.Context,
	engine string,
	operation string,
	attrs map[string]string,
) (*Observer, context.Context) {

	o := &Observer{
		instruments: i,
		ctx:         ctx,
		engine:      engine,
		operation:   operation,
		start:       time.Now(),
	}

	if i.Tracing != nil {
		spanAttrs := map[string]string{AttrOperation: operation, AttrEngine: engine}
		for key, value := range attrs {
			spanAttrs[key] = value
		}

		o.ctx, o.span = i.Tracing.StartSpan(ctx, spanNames[operation], spanAttrs)
	}

	return o, o.ctx
}

// Succeed records a completed operation; eventCount is the number of events queried or appended.
func (o *Observer) Succeed(eventCount int) {
	duration := time.Since(o.start)

	o.recordDuration(duration, StatusSuccess)

	if metric, ok := eventCountMetrics[o.operation]; ok {
		o.recordValue(metric, float64(eventCount), StatusSuccess)
	}

	if o.span != nil {
		o.span.SetStatus(StatusSuccess)
		o.span.AddAttribute(AttrDurationMS, formatMilliseconds(duration))
		o.instruments.Tracing.FinishSpan(o.span, StatusSuccess, map[string]string{
			AttrEventCount: strconv.Itoa(eventCount),
		})
	}

	if o.instruments.ContextualLogger != nil {
		o.instruments.ContextualLogger.InfoContext(
			o.ctx,
			logMsgOperation+o.operation+logMsgSucceeded,
			AttrEngine, o.engine,
			AttrEventCount, eventCount,
			AttrDurationMS, toMilliseconds(duration),
		)
	}
}

// Fail records a failed operation.
func (o *Observer) Fail(errorType string, err error) {
	duration := time.Since(o.start)

	o.recordDuration(duration, StatusError)
	o.incrementCounter(MetricErrors, map[string]string{
		AttrOperation: o.operation,
		AttrStatus:    StatusError,
		AttrErrorType: errorType,
	})

	if o.span != nil {
		o.span.SetStatus(StatusError)
		o.span.AddAttribute(AttrDurationMS, formatMilliseconds(duration))
		o.instruments.Tracing.FinishSpan(o.span, StatusError, map[string]string{AttrErrorType: errorType})
	}

	if o.instruments.ContextualLogger != nil {
		o.instruments.ContextualLogger.ErrorContext(
			o.ctx,
			logMsgOperation+o.operation+logMsgFailed,
			AttrEngine, o.engine,
			AttrErrorType, errorType,
			"error", fmt.Sprint(err),
		)
	}
}

func (o *Observer) recordDuration(duration time.Duration, status string) {
	if o.instruments.Metrics == nil {
		return
	}

	labels := map[string]string{AttrOperation: o.operation, AttrStatus: status}
	metric := durationMetrics[o.operation]

	if contextual, ok := o.instruments.Metrics.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(o.ctx, metric, duration, labels)
		return
	}

	o.instruments.Metrics.RecordDuration(metric, duration, labels)
}

func (o *Observer) recordValue(metric string, value float64, status string) {
	if o.instruments.Metrics == nil {
		return
	}

	labels := map[string]string{AttrOperation: o.operation, AttrStatus: status}

	if contextual, ok := o.instruments.Metrics.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(o.ctx, metric, value, labels)
		return
	}

	o.instruments.Metrics.RecordValue(metric, value, labels)
}

func (o *Observer) incrementCounter(metric string, labels map[string]string) {
	if o.instruments.Metrics == nil {
		return
	}

	if contextual, ok := o.instruments.Metrics.(eventstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(o.ctx, metric, labels)
		return
	}

	o.instruments.Metrics.IncrementCounter(metric, labels)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func formatMilliseconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", float64(d.Nanoseconds())/1e6)
}
