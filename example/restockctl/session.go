package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/features/command/addproduct"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/features/command/definecapacity"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/features/command/orderrestock"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/features/query/productcatalog"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/features/saga/restocksaga"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/shell"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/shell/config"
)

const prompt = "> "

const usage = `Commands:
  add <product_id>                  - Add a product
  capacity <product_id> <capacity>  - Define the capacity of a product
  restock <product_id> <qty>        - Order a restock of a product
  threshold <product_id> <qty>      - Report the remaining stock, the saga refills to capacity
  catalog                           - Query product catalog
  history                           - List all stored events
  metrics                           - Show the collected metrics
  clear                             - Clear all events
  help                              - Show this help
  exit                              - Exit the CLI
`

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	errQuantityNotANumber = errors.New("quantity must be a number")
	errMetricsDisabled    = errors.New("metrics are not collected in this session")
)

// MetricsSource reports the metrics collected so far. *config.Telemetry satisfies it.
type MetricsSource interface {
	CollectMetrics(ctx context.Context) ([]config.MetricPoint, error)
}

// pathReporter is implemented by stores that persist to a file.
type pathReporter interface {
	Path() string
}

// Session is one interactive run of the CLI on top of an EventStore.
type Session struct {
	store           config.EventStore
	out             io.Writer
	clock           core.Clock
	metricsSource   MetricsSource
	instrumentation shell.Instrumentation
	addProduct      addproduct.CommandHandler
	defineCapacity  definecapacity.CommandHandler
	orderRestock    orderrestock.CommandHandler
	restockSaga     restocksaga.EventHandler
	catalog         productcatalog.QueryHandler
}

// Option defines a functional option for configuring the Session.
type Option func(*Session)

// WithClock sets the time source of all handlers.
func WithClock(clock core.Clock) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithLogger sets the logger of all handlers.
func WithLogger(logger shell.Logger) Option {
	return func(s *Session) {
		s.instrumentation.Logger = logger
	}
}

// WithContextualLogger sets the context-aware logger of all handlers, e.g. one that adds trace IDs.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(s *Session) {
		s.instrumentation.ContextualLogger = logger
	}
}

// WithMetrics sets the metrics collector of all handlers.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(s *Session) {
		s.instrumentation.Metrics = collector
	}
}

// WithTracing sets the tracing collector of all handlers.
func WithTracing(collector shell.TracingCollector) Option {
	return func(s *Session) {
		s.instrumentation.Tracing = collector
	}
}

// WithMetricsSource enables the metrics command.
func WithMetricsSource(source MetricsSource) Option {
	return func(s *Session) {
		s.metricsSource = source
	}
}

// NewSession wires all handlers to the store. Output goes to out.
func NewSession(store config.EventStore, out io.Writer, options ...Option) (*Session, error) {
	if store == nil {
		return nil, shell.ErrNilEventStore
	}

	s := &Session{
		store: store,
		out:   out,
		clock: core.SystemClock,
	}

	for _, option := range options {
		option(s)
	}

	var err error
	var errs []error

	i := s.instrumentation

	s.addProduct, err = addproduct.NewCommandHandler(
		store,
		addproduct.WithClock(s.clock),
		addproduct.WithLogger(i.Logger),
		addproduct.WithContextualLogger(i.ContextualLogger),
		addproduct.WithMetrics(i.Metrics),
		addproduct.WithTracing(i.Tracing),
	)
	errs = append(errs, err)

	s.defineCapacity, err = definecapacity.NewCommandHandler(
		store,
		definecapacity.WithClock(s.clock),
		definecapacity.WithLogger(i.Logger),
		definecapacity.WithContextualLogger(i.ContextualLogger),
		definecapacity.WithMetrics(i.Metrics),
		definecapacity.WithTracing(i.Tracing),
	)
	errs = append(errs, err)

	s.orderRestock, err = orderrestock.NewCommandHandler(
		store,
		orderrestock.WithClock(s.clock),
		orderrestock.WithLogger(i.Logger),
		orderrestock.WithContextualLogger(i.ContextualLogger),
		orderrestock.WithMetrics(i.Metrics),
		orderrestock.WithTracing(i.Tracing),
	)
	errs = append(errs, err)

	s.restockSaga, err = restocksaga.NewEventHandler(
		store,
		s.orderRestock,
		restocksaga.WithLogger(i.Logger),
		restocksaga.WithContextualLogger(i.ContextualLogger),
		restocksaga.WithMetrics(i.Metrics),
		restocksaga.WithTracing(i.Tracing),
	)
	errs = append(errs, err)

	s.catalog, err = productcatalog.NewQueryHandler(
		store,
		productcatalog.WithLogger(i.Logger),
		productcatalog.WithContextualLogger(i.ContextualLogger),
		productcatalog.WithMetrics(i.Metrics),
		productcatalog.WithTracing(i.Tracing),
	)
	errs = append(errs, err)

	if joined := errors.Join(errs...); joined != nil {
		return nil, joined
	}

	return s, nil
}

// Run prints the greeting and executes the lines read from in until exit or end of input.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	loaded, err := s.store.Query(ctx, eventstore.BuildEventFilter().MatchingAnyEvent())
	if err != nil {
		return err
	}

	s.printf("Event Sourcing CLI - 'loop'\n")
	if reporter, ok := s.store.(pathReporter); ok {
		s.printf("Loaded %d events from %s\n", len(loaded), reporter.Path())
	} else {
		s.printf("Loaded %d events from storage\n", len(loaded))
	}
	s.printf("%s\n", usage)

	scanner := bufio.NewScanner(in)
	for {
		s.printf(prompt)

		if !scanner.Scan() {
			s.printf("\n")
			return scanner.Err()
		}

		if !s.Execute(ctx, scanner.Text()) {
			return nil
		}
	}
}

// Execute runs one input line. It returns false when the session should end.
// Failures are printed, they never end the session.
func (s *Session) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	command, args := strings.ToLower(fields[0]), fields[1:]

	var err error

	switch command {
	case "add":
		err = s.add(ctx, args)
	case "capacity":
		err = s.capacity(ctx, args)
	case "restock":
		err = s.restock(ctx, args)
	case "threshold":
		err = s.threshold(ctx, args)
	case "catalog":
		err = s.showCatalog(ctx)
	case "history":
		err = s.history(ctx)
	case "metrics":
		err = s.showMetrics(ctx)
	case "clear":
		err = s.clear(ctx)
	case "help":
		s.printf("%s", usage)
	case "exit", "quit":
		s.printf("Goodbye!\n")
		return false
	default:
		s.printf("Unknown command: %s\n", command)
	}

	if err != nil {
		s.printf("%s\n", describe(err))
	}

	return true
}

func (s *Session) add(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("add <product_id>")
	}

	emitted, err := s.addProduct.Handle(ctx, addproduct.BuildCommand(args[0]))
	if err != nil {
		return err
	}

	if len(emitted) == 0 {
		s.printf("Product '%s' already added\n", args[0])
		return nil
	}

	s.printf("Product '%s' added\n", args[0])

	return nil
}

func (s *Session) capacity(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("capacity <product_id> <capacity>")
	}

	capacity, err := parseQuantity(args[1])
	if err != nil {
		return err
	}

	if _, err = s.defineCapacity.Handle(ctx, definecapacity.BuildCommand(args[0], capacity)); err != nil {
		return err
	}

	s.printf("Capacity of '%s' set to %d\n", args[0], capacity)

	return nil
}

func (s *Session) restock(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("restock <product_id> <quantity>")
	}

	quantity, err := parseQuantity(args[1])
	if err != nil {
		return err
	}

	emitted, err := s.orderRestock.Handle(ctx, orderrestock.BuildCommand(args[0], quantity))
	if err != nil {
		return err
	}

	s.printRestocks(args[0], emitted)

	return nil
}

// threshold records the reached threshold and lets the saga react to it, caused by the recorded event.
func (s *Session) threshold(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("threshold <product_id> <quantity>")
	}

	quantity, err := parseQuantity(args[1])
	if err != nil {
		return err
	}

	event := core.BuildThresholdReached(args[0], quantity, s.clock())
	metadata := shell.EventMetadataFor(ctx)

	storable, err := shell.StorableEventFrom(event, metadata)
	if err != nil {
		return err
	}

	if err = s.store.Append(ctx, storable); err != nil {
		return err
	}

	s.printf("Threshold of '%s' reached with %d units left\n", args[0], quantity)

	emitted, err := s.restockSaga.Handle(shell.ContextWithCausation(ctx, metadata), event)
	if err != nil {
		return err
	}

	s.printRestocks(args[0], emitted)

	return nil
}

func (s *Session) showCatalog(ctx context.Context) error {
	catalog, err := s.catalog.Handle(ctx, productcatalog.BuildQuery())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return err
	}

	s.printf("Product Catalog:\n%s\n", data)

	return nil
}

func (s *Session) history(ctx context.Context) error {
	events, err := s.store.Query(ctx, eventstore.BuildEventFilter().MatchingAnyEvent())
	if err != nil {
		return err
	}

	if len(events) == 0 {
		s.printf("No events stored\n")
		return nil
	}

	for i, event := range events {
		s.printf("%d. %s %s %s\n", i+1, event.OccurredAt.Format(time.RFC3339Nano), event.EventType, event.PayloadJSON)
	}

	return nil
}

func (s *Session) showMetrics(ctx context.Context) error {
	if s.metricsSource == nil {
		return errMetricsDisabled
	}

	points, err := s.metricsSource.CollectMetrics(ctx)
	if err != nil {
		return err
	}

	if len(points) == 0 {
		s.printf("No metrics collected\n")
		return nil
	}

	for _, point := range points {
		s.printf("%s{%s} %g\n", point.Name, point.Labels, point.Value)
	}

	return nil
}

func (s *Session) clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}

	s.printf("All events cleared!\n")

	return nil
}

func (s *Session) printRestocks(productID string, emitted core.DomainEvents) {
	if len(emitted) == 0 {
		s.printf("Restock of '%s' suppressed, enough units are ordered already\n", productID)
		return
	}

	for _, event := range emitted {
		if e, ok := event.(core.RestockOrdered); ok {
			s.printf("Restocked '%s' with %d units\n", e.ProductID, e.Quantity)
		}
	}
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

type usageError string

func (u usageError) Error() string {
	return "Usage: " + string(u)
}

func parseQuantity(raw string) (int, error) {
	quantity, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errQuantityNotANumber
	}

	return quantity, nil
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	var ue usageError
	if errors.As(err, &ue) {
		return err.Error()
	}

	if errors.Is(err, errQuantityNotANumber) {
		return "Quantity must be a number"
	}

	return "Error: " + err.Error()
}
