package restocksaga

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/features/command/orderrestock"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/shell"
)

// eventHandlerType identifies saga runs in logs, metrics, and spans.
const eventHandlerType = "RestockSaga"

// ErrNilCommandSender is returned when the EventHandler is created without a CommandSender.
var ErrNilCommandSender = errors.New("command sender must not be nil")

// EventStore defines the interface needed by the EventHandler to read the capacity history.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, error)
}

// CommandSender dispatches the commands the saga decided on. The orderrestock.CommandHandler satisfies it.
type CommandSender interface {
	Handle(ctx context.Context, command orderrestock.Command) (core.DomainEvents, error)
}

// EventHandler runs the restock saga: Query capacity → Decide → Send.
type EventHandler struct {
	eventStore      EventStore
	sender          CommandSender
	instrumentation shell.Instrumentation
}

// Option defines a functional option for configuring the EventHandler.
type Option func(*EventHandler)

// WithLogger sets the logger for the EventHandler.
func WithLogger(logger shell.Logger) Option {
	return func(h *EventHandler) {
		h.instrumentation.Logger = logger
	}
}

// WithContextualLogger sets a context-aware logger; it takes precedence over WithLogger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(h *EventHandler) {
		h.instrumentation.ContextualLogger = logger
	}
}

// WithMetrics sets the metrics collector for handler durations and outcomes.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(h *EventHandler) {
		h.instrumentation.Metrics = collector
	}
}

// WithTracing sets the tracing collector; every Handle call becomes one span.
func WithTracing(collector shell.TracingCollector) Option {
	return func(h *EventHandler) {
		h.instrumentation.Tracing = collector
	}
}

// NewEventHandler creates a new EventHandler with the provided dependencies.
func NewEventHandler(eventStore EventStore, sender CommandSender, options ...Option) (EventHandler, error) {
	if eventStore == nil {
		return EventHandler{}, shell.ErrNilEventStore
	}

	if sender == nil {
		return EventHandler{}, ErrNilCommandSender
	}

	h := EventHandler{
		eventStore: eventStore,
		sender:     sender,
	}

	for _, option := range options {
		option(&h)
	}

	return h, nil
}

// Handle reacts to the event and returns all events the sent commands emitted.
// Wrap ctx with shell.ContextWithCausation to have the ordered restocks caused by the event's message.
func (h EventHandler) Handle(ctx context.Context, event core.ThresholdReached) (core.DomainEvents, error) {
	observation, ctx := h.instrumentation.ObserveEventHandler(ctx, eventHandlerType, event.ProductID)

	emitted, err := h.react(ctx, event)
	if err != nil {
		observation.Fail(err)
		return nil, err
	}

	observation.Succeed(shell.ClassifyBusinessOutcome(emitted), len(emitted))

	return emitted, nil
}

func (h EventHandler) react(ctx context.Context, event core.ThresholdReached) (core.DomainEvents, error) {
	storableEvents, err := h.eventStore.Query(ctx, BuildEventFilter(event.ProductID))
	if err != nil {
		return nil, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return nil, err
	}

	emitted := core.DomainEvents{}
	for _, command := range Decide(history, event) {
		events, sendErr := h.sender.Handle(ctx, command)
		if sendErr != nil {
			return nil, sendErr
		}

		emitted = append(emitted, events...)
	}

	return emitted, nil
}
