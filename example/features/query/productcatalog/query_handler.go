package productcatalog

import (
	"context"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/shell"
)

// EventStore defines the interface needed by the QueryHandler for event store operations.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, error)
}

// QueryHandler orchestrates the complete query processing workflow: Query → Unmarshal → Project.
type QueryHandler struct {
	eventStore      EventStore
	instrumentation shell.Instrumentation
}

// Option defines a functional option for configuring the QueryHandler.
type Option func(*QueryHandler)

// WithLogger sets the logger for the QueryHandler.
func WithLogger(logger shell.Logger) Option {
	return func(h *QueryHandler) {
		h.instrumentation.Logger = logger
	}
}

// WithContextualLogger sets a context-aware logger; it takes precedence over WithLogger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(h *QueryHandler) {
		h.instrumentation.ContextualLogger = logger
	}
}

// WithMetrics sets the metrics collector for handler durations and outcomes.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(h *QueryHandler) {
		h.instrumentation.Metrics = collector
	}
}

// WithTracing sets the tracing collector; every Handle call becomes one span.
func WithTracing(collector shell.TracingCollector) Option {
	return func(h *QueryHandler) {
		h.instrumentation.Tracing = collector
	}
}

// NewQueryHandler creates a new QueryHandler with the provided EventStore dependency.
func NewQueryHandler(eventStore EventStore, options ...Option) (QueryHandler, error) {
	if eventStore == nil {
		return QueryHandler{}, shell.ErrNilEventStore
	}

	h := QueryHandler{eventStore: eventStore}

	for _, option := range options {
		option(&h)
	}

	return h, nil
}

// Handle executes the complete query processing workflow.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Catalog, error) {
	observation, ctx := h.instrumentation.ObserveQuery(ctx, query.QueryType())

	storableEvents, err := h.eventStore.Query(ctx, BuildEventFilter())
	if err != nil {
		observation.Fail(err)
		return nil, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		observation.Fail(err)
		return nil, err
	}

	catalog := Project(history, query)
	observation.Succeed(shell.StatusSuccess, len(storableEvents))

	return catalog, nil
}
