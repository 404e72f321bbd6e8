package orderrestock

import (
	"context"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/shell"
)

// EventStore defines the interface needed by the CommandHandler for event store operations.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, error)
	Append(ctx context.Context, event eventstore.StorableEvent, additionalEvents ...eventstore.StorableEvent) error
}

// CommandHandler orchestrates the complete command processing workflow:
// Query → Unmarshal → Project → Decide → Append.
type CommandHandler struct {
	eventStore      EventStore
	clock           core.Clock
	instrumentation shell.Instrumentation
}

// Option defines a functional option for configuring the CommandHandler.
type Option func(*CommandHandler)

// WithClock sets the time source for the recordedAt of emitted events.
func WithClock(clock core.Clock) Option {
	return func(h *CommandHandler) {
		h.clock = clock
	}
}

// WithLogger sets the logger for the CommandHandler.
func WithLogger(logger shell.Logger) Option {
	return func(h *CommandHandler) {
		h.instrumentation.Logger = logger
	}
}

// WithContextualLogger sets a context-aware logger; it takes precedence over WithLogger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(h *CommandHandler) {
		h.instrumentation.ContextualLogger = logger
	}
}

// WithMetrics sets the metrics collector for handler durations and outcomes.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(h *CommandHandler) {
		h.instrumentation.Metrics = collector
	}
}

// WithTracing sets the tracing collector; every Handle call becomes one span.
func WithTracing(collector shell.TracingCollector) Option {
	return func(h *CommandHandler) {
		h.instrumentation.Tracing = collector
	}
}

// NewCommandHandler creates a new CommandHandler with the provided EventStore dependency.
func NewCommandHandler(eventStore EventStore, options ...Option) (CommandHandler, error) {
	if eventStore == nil {
		return CommandHandler{}, shell.ErrNilEventStore
	}

	h := CommandHandler{
		eventStore: eventStore,
		clock:      core.SystemClock,
	}

	for _, option := range options {
		option(&h)
	}

	return h, nil
}

// Handle rebuilds the Restocker state from the product's history, decides, and appends what was decided.
// It returns the emitted events, which is an empty slice when the restock was suppressed.
// Errors can only come from the event store or from mapping stored events.
func (h CommandHandler) Handle(ctx context.Context, command Command) (core.DomainEvents, error) {
	observation, ctx := h.instrumentation.ObserveCommand(ctx, command.CommandType(), command.ProductID)

	emitted, err := h.executeCommand(ctx, command)
	if err != nil {
		observation.Fail(err)
		return nil, err
	}

	observation.Succeed(shell.ClassifyBusinessOutcome(emitted), len(emitted))

	return emitted, nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (core.DomainEvents, error) {
	filter := BuildEventFilter(command.ProductID)

	// Query phase
	storableEvents, err := h.eventStore.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Unmarshal phase
	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return nil, err
	}

	// Business logic phase - delegate to pure core functions
	emitted := Decide(Project(history), command, h.clock())

	if len(emitted) == 0 {
		return emitted, nil // suppressed - nothing to append
	}

	// Append phase
	toAppend, err := shell.StorableEventsFrom(emitted, shell.EventMetadataFor(ctx))
	if err != nil {
		return nil, err
	}

	if appendErr := h.eventStore.Append(ctx, toAppend[0], toAppend[1:]...); appendErr != nil {
		return nil, appendErr
	}

	return emitted, nil
}
