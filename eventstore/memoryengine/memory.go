// Package memoryengine provides an in-process, non-durable implementation of the event store contract.
//
// It keeps the full event log in a slice, evaluates filters with eventstore.Filter.Matches,
// and is mainly used for tests, demos, and as the default engine of the CLI when
// nothing needs to survive the process.
package memoryengine

import (
	"context"
	"slices"
	"sync"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/internal/observation"
)

const (
	logMsgQueryCompleted = "eventstore operation: query completed"
	logMsgEventsAppended = "eventstore operation: events appended"
	logMsgEventsCleared  = "eventstore operation: events cleared"
	logAttrEventCount    = "event_count"
	logAttrEngine        = "engine"
	engineName           = "memory"
)

// EventStore is an append-only event log held in memory.
type EventStore struct {
	mu          sync.RWMutex
	events      eventstore.StorableEvents
	logger      eventstore.Logger
	instruments observation.Instruments
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore)

// WithLogger sets the logger for the EventStore.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) {
		es.logger = logger
	}
}

// WithMetrics sets the metrics collector for query, append, and clear durations and event counts.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(es *EventStore) {
		es.instruments.Metrics = collector
	}
}

// WithTracing sets the tracing collector; each operation becomes one span.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(es *EventStore) {
		es.instruments.Tracing = collector
	}
}

// WithContextualLogger sets a logger that receives the request context with every log call.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) {
		es.instruments.ContextualLogger = logger
	}
}

// WithInitialEvents seeds the EventStore with an existing history.
func WithInitialEvents(events ...eventstore.StorableEvent) Option {
	return func(es *EventStore) {
		es.events = append(es.events, events...)
	}
}

// NewEventStore creates an empty (or seeded) in-memory EventStore.
func NewEventStore(options ...Option) *EventStore {
	es := &EventStore{
		events: make(eventstore.StorableEvents, 0),
	}

	for _, option := range options {
		option(es)
	}

	return es
}

// Query returns a copy of all events matching the filter, in append order.
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, error) {
	observer, _ := es.instruments.Start(ctx, engineName, observation.OperationQuery, nil)

	es.mu.RLock()
	defer es.mu.RUnlock()

	result := make(eventstore.StorableEvents, 0)
	for _, event := range es.events {
		if filter.Matches(event) {
			result = append(result, event)
		}
	}

	if es.logger != nil {
		es.logger.Debug(logMsgQueryCompleted, logAttrEngine, engineName, logAttrEventCount, len(result))
	}

	observer.Succeed(len(result))

	return result, nil
}

// Append adds one or multiple events to the end of the log.
func (es *EventStore) Append(
	ctx context.Context,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	observer, _ := es.instruments.Start(ctx, engineName, observation.OperationAppend, map[string]string{
		observation.AttrEventType: event.EventType,
	})

	es.mu.Lock()
	defer es.mu.Unlock()

	es.events = append(es.events, event)
	es.events = append(es.events, additionalEvents...)

	if es.logger != nil {
		es.logger.Info(logMsgEventsAppended, logAttrEngine, engineName, logAttrEventCount, 1+len(additionalEvents))
	}

	observer.Succeed(1 + len(additionalEvents))

	return nil
}

// Clear removes all events.
func (es *EventStore) Clear(ctx context.Context) error {
	observer, _ := es.instruments.Start(ctx, engineName, observation.OperationClear, nil)

	es.mu.Lock()
	defer es.mu.Unlock()

	es.events = make(eventstore.StorableEvents, 0)

	if es.logger != nil {
		es.logger.Info(logMsgEventsCleared, logAttrEngine, engineName)
	}

	observer.Succeed(0)

	return nil
}

// All returns a copy of the complete log.
func (es *EventStore) All() eventstore.StorableEvents {
	es.mu.RLock()
	defer es.mu.RUnlock()

	return slices.Clone(es.events)
}
