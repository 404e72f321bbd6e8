package shell

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
)

const (
	// CommandHandlerDurationMetric tracks command handler execution duration.
	CommandHandlerDurationMetric = "commandhandler_handle_duration_seconds"

	// CommandHandlerCallsMetric counts command handler calls, labeled by status.
	CommandHandlerCallsMetric = "commandhandler_handle_calls_total"

	// CommandHandlerIdempotentMetric counts commands that decided to emit nothing.
	CommandHandlerIdempotentMetric = "commandhandler_idempotent_operations_total"

	// CommandHandlerCanceledMetric counts commands aborted by context cancellation.
	CommandHandlerCanceledMetric = "commandhandler_canceled_operations_total"

	// CommandHandlerTimeoutMetric counts commands aborted by a context deadline.
	CommandHandlerTimeoutMetric = "commandhandler_timeout_operations_total"

	// QueryHandlerDurationMetric tracks query handler execution duration.
	QueryHandlerDurationMetric = "queryhandler_handle_duration_seconds"

	// QueryHandlerCallsMetric counts query handler calls, labeled by status.
	QueryHandlerCallsMetric = "queryhandler_handle_calls_total"

	// QueryHandlerCanceledMetric counts queries aborted by context cancellation.
	QueryHandlerCanceledMetric = "queryhandler_canceled_operations_total"

	// QueryHandlerTimeoutMetric counts queries aborted by a context deadline.
	QueryHandlerTimeoutMetric = "queryhandler_timeout_operations_total"

	// EventHandlerDurationMetric tracks event handler (saga) execution duration.
	EventHandlerDurationMetric = "eventhandler_handle_duration_seconds"

	// EventHandlerCallsMetric counts event handler calls, labeled by status.
	EventHandlerCallsMetric = "eventhandler_handle_calls_total"

	// EventHandlerCanceledMetric counts event handler runs aborted by context cancellation.
	EventHandlerCanceledMetric = "eventhandler_canceled_operations_total"

	// EventHandlerTimeoutMetric counts event handler runs aborted by a context deadline.
	EventHandlerTimeoutMetric = "eventhandler_timeout_operations_total"

	// StatusSuccess indicates that events were emitted.
	StatusSuccess = "success"

	// StatusError indicates a processing error.
	StatusError = "error"

	// StatusIdempotent indicates no state change was needed.
	StatusIdempotent = "idempotent"

	// StatusCanceled indicates the context was canceled.
	StatusCanceled = "canceled"

	// StatusTimeout indicates the context deadline was exceeded.
	StatusTimeout = "timeout"

	// LogMsgCommandStarted is logged when command processing begins.
	LogMsgCommandStarted = "command handler started"

	// LogMsgCommandCompleted is logged when command processing succeeds.
	LogMsgCommandCompleted = "command handler completed"

	// LogMsgCommandFailed is logged when command processing fails.
	LogMsgCommandFailed = "command handler failed"

	// LogMsgQueryStarted is logged when query processing begins.
	LogMsgQueryStarted = "query handler started"

	// LogMsgQueryCompleted is logged when query processing succeeds.
	LogMsgQueryCompleted = "query handler completed"

	// LogMsgQueryFailed is logged when query processing fails.
	LogMsgQueryFailed = "query handler failed"

	// LogMsgEventHandlerStarted is logged when an event handler starts reacting.
	LogMsgEventHandlerStarted = "event handler started"

	// LogMsgEventHandlerCompleted is logged when an event handler reacted successfully.
	LogMsgEventHandlerCompleted = "event handler completed"

	// LogMsgEventHandlerFailed is logged when an event handler fails.
	LogMsgEventHandlerFailed = "event handler failed"

	// LogAttrCommandType identifies the command type in logs, metric labels, and spans.
	LogAttrCommandType = "command_type"

	// LogAttrQueryType identifies the query type in logs, metric labels, and spans.
	LogAttrQueryType = "query_type"

	// LogAttrEventHandlerType identifies the event handler in logs, metric labels, and spans.
	LogAttrEventHandlerType = "event_handler_type"

	// LogAttrProductID identifies the product in logs.
	LogAttrProductID = "product_id"

	// LogAttrStatus identifies the outcome in metric labels and spans.
	LogAttrStatus = "status"

	// LogAttrDurationMS indicates the processing duration in milliseconds.
	LogAttrDurationMS = "duration_ms"

	// LogAttrBusinessOutcome classifies the business result.
	LogAttrBusinessOutcome = "business_outcome"

	// LogAttrEventCount indicates the number of events processed.
	LogAttrEventCount = "event_count"

	// LogAttrError contains error details.
	LogAttrError = "error"

	// SpanNameCommandHandle is the span name for command handler operations.
	SpanNameCommandHandle = "commandhandler.handle"

	// SpanNameQueryHandle is the span name for query handler operations.
	SpanNameQueryHandle = "queryhandler.handle"

	// SpanNameEventHandle is the span name for event handler operations.
	SpanNameEventHandle = "eventhandler.handle"
)

// Logger interface for basic logging in handlers. *slog.Logger satisfies it.
type Logger = eventstore.Logger

// ContextualLogger interface for context-aware logging in handlers. *slog.Logger satisfies it.
type ContextualLogger = eventstore.ContextualLogger

// MetricsCollector interface for handler metrics.
type MetricsCollector = eventstore.MetricsCollector

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
type ContextualMetricsCollector = eventstore.ContextualMetricsCollector

// TracingCollector interface for distributed tracing in handlers.
type TracingCollector = eventstore.TracingCollector

// SpanContext represents an active tracing span.
type SpanContext = eventstore.SpanContext

// Instrumentation bundles the optional observability dependencies of a handler.
// The zero value observes nothing.
type Instrumentation struct {
	Logger           Logger
	ContextualLogger ContextualLogger
	Metrics          MetricsCollector
	Tracing          TracingCollector
}

// handlerKind holds the names that differ between command, query, and event handlers.
type handlerKind struct {
	typeAttr       string
	spanName       string
	durationMetric string
	callsMetric    string
	canceledMetric string
	timeoutMetric  string
	msgStarted     string
	msgCompleted   string
	msgFailed      string
}

var (
	commandKind = handlerKind{
		typeAttr:       LogAttrCommandType,
		spanName:       SpanNameCommandHandle,
		durationMetric: CommandHandlerDurationMetric,
		callsMetric:    CommandHandlerCallsMetric,
		canceledMetric: CommandHandlerCanceledMetric,
		timeoutMetric:  CommandHandlerTimeoutMetric,
		msgStarted:     LogMsgCommandStarted,
		msgCompleted:   LogMsgCommandCompleted,
		msgFailed:      LogMsgCommandFailed,
	}

	queryKind = handlerKind{
		typeAttr:       LogAttrQueryType,
		spanName:       SpanNameQueryHandle,
		durationMetric: QueryHandlerDurationMetric,
		callsMetric:    QueryHandlerCallsMetric,
		canceledMetric: QueryHandlerCanceledMetric,
		timeoutMetric:  QueryHandlerTimeoutMetric,
		msgStarted:     LogMsgQueryStarted,
		msgCompleted:   LogMsgQueryCompleted,
		msgFailed:      LogMsgQueryFailed,
	}

	eventHandlerKind = handlerKind{
		typeAttr:       LogAttrEventHandlerType,
		spanName:       SpanNameEventHandle,
		durationMetric: EventHandlerDurationMetric,
		callsMetric:    EventHandlerCallsMetric,
		canceledMetric: EventHandlerCanceledMetric,
		timeoutMetric:  EventHandlerTimeoutMetric,
		msgStarted:     LogMsgEventHandlerStarted,
		msgCompleted:   LogMsgEventHandlerCompleted,
		msgFailed:      LogMsgEventHandlerFailed,
	}
)

// Observation tracks one handler run from start to Succeed or Fail.
type Observation struct {
	instrumentation Instrumentation
	kind            handlerKind
	handlerType     string
	ctx             context.Context
	span            SpanContext
	start           time.Time
}

// ObserveCommand starts observing a command handler run and returns the context to continue with.
func (i Instrumentation) ObserveCommand(ctx context.Context, commandType string, productID string) (*Observation, context.Context) {
	return i.observe(ctx, commandKind, commandType, LogAttrProductID, productID)
}

// ObserveQuery starts observing a query handler run and returns the context to continue with.
func (i Instrumentation) ObserveQuery(ctx context.Context, queryType string) (*Observation, context.Context) {
	return i.observe(ctx, queryKind, queryType)
}

// ObserveEventHandler starts observing an event handler run and returns the context to continue with.
func (i Instrumentation) ObserveEventHandler(ctx context.Context, handlerType string, productID string) (*Observation, context.Context) {
	return i.observe(ctx, eventHandlerKind, handlerType, LogAttrProductID, productID)
}

func (i Instrumentation) observe(
	ctx context.Context,
	kind handlerKind,
	handlerType string,
	startArgs ...any,
) (*Observation, context.Context) {

	o := &Observation{
		instrumentation: i,
		kind:            kind,
		handlerType:     handlerType,
		start:           time.Now(),
	}

	ctx, o.span = startSpan(ctx, i.Tracing, kind, handlerType)
	o.ctx = ctx

	logInfo(ctx, i, kind.msgStarted, append([]any{kind.typeAttr, handlerType}, startArgs...)...)

	return o, ctx
}

// Succeed records a successful run. Command handlers pass ClassifyBusinessOutcome of the emitted events.
func (o *Observation) Succeed(businessOutcome string, eventCount int) {
	duration := time.Since(o.start)

	recordMetrics(o.ctx, o.instrumentation.Metrics, o.kind, o.handlerType, businessOutcome, duration)
	finishSpan(o.instrumentation.Tracing, o.span, businessOutcome, duration, nil)
	logInfo(
		o.ctx,
		o.instrumentation,
		o.kind.msgCompleted,
		o.kind.typeAttr, o.handlerType,
		LogAttrBusinessOutcome, businessOutcome,
		LogAttrEventCount, eventCount,
		LogAttrDurationMS, ToMilliseconds(duration),
	)
}

// Fail records a failed run; canceled and timed out contexts get their own status.
func (o *Observation) Fail(err error) {
	duration := time.Since(o.start)
	status := StatusFromError(err)

	recordMetrics(o.ctx, o.instrumentation.Metrics, o.kind, o.handlerType, status, duration)
	finishSpan(o.instrumentation.Tracing, o.span, status, duration, err)
	logError(o.ctx, o.instrumentation, o.kind.msgFailed, o.kind.typeAttr, o.handlerType, LogAttrError, err.Error())
}

// ClassifyBusinessOutcome tells an accepting decision from a suppressing one.
func ClassifyBusinessOutcome(emitted core.DomainEvents) string {
	if len(emitted) == 0 {
		return StatusIdempotent
	}

	return StatusSuccess
}

// StatusFromError maps an error to StatusCanceled, StatusTimeout, or StatusError.
func StatusFromError(err error) string {
	switch {
	case IsCancellationError(err):
		return StatusCanceled
	case IsTimeoutError(err):
		return StatusTimeout
	default:
		return StatusError
	}
}

// IsCancellationError checks if an error is due to context cancellation.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError checks if an error is due to context deadline exceeded.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with precision.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

func recordMetrics(
	ctx context.Context,
	collector MetricsCollector,
	kind handlerKind,
	handlerType string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := map[string]string{kind.typeAttr: handlerType, LogAttrStatus: status}

	recordDuration(ctx, collector, kind.durationMetric, duration, labels)
	incrementCounter(ctx, collector, kind.callsMetric, labels)

	switch status {
	case StatusIdempotent:
		if kind.typeAttr == LogAttrCommandType {
			incrementCounter(ctx, collector, CommandHandlerIdempotentMetric, labels)
		}
	case StatusCanceled:
		incrementCounter(ctx, collector, kind.canceledMetric, labels)
	case StatusTimeout:
		incrementCounter(ctx, collector, kind.timeoutMetric, labels)
	}
}

func recordDuration(ctx context.Context, collector MetricsCollector, metric string, duration time.Duration, labels map[string]string) {
	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	collector.RecordDuration(metric, duration, labels)
}

func incrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

func startSpan(ctx context.Context, tracing TracingCollector, kind handlerKind, handlerType string) (context.Context, SpanContext) {
	if tracing == nil {
		return ctx, nil
	}

	return tracing.StartSpan(ctx, kind.spanName, map[string]string{kind.typeAttr: handlerType})
}

func finishSpan(tracing TracingCollector, span SpanContext, status string, duration time.Duration, err error) {
	if tracing == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: formatDurationMS(duration),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	tracing.FinishSpan(span, status, attrs)
}

// logInfo prefers the contextual logger, so a trace-correlating logger isn't bypassed.
func logInfo(ctx context.Context, i Instrumentation, msg string, args ...any) {
	if i.ContextualLogger != nil {
		i.ContextualLogger.InfoContext(ctx, msg, args...)
	} else if i.Logger != nil {
		i.Logger.Info(msg, args...)
	}
}

func logError(ctx context.Context, i Instrumentation, msg string, args ...any) {
	if i.ContextualLogger != nil {
		i.ContextualLogger.ErrorContext(ctx, msg, args...)
	} else if i.Logger != nil {
		i.Logger.Error(msg, args...)
	}
}

// formatDurationMS formats duration in milliseconds for span attributes.
func formatDurationMS(duration time.Duration) string {
	return fmt.Sprintf("%.2f", ToMilliseconds(duration))
}
