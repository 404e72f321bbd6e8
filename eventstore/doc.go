// Package eventstore provides the storage contract shared by all event store engines.
//
// An event store is an append-only, ordered log of facts which can be read back in full
// or narrowed down with a Filter. The package is agnostic of the domain: events are
// carried as StorableEvent values built on scalars and raw JSON.
//
// Key types:
//   - StorableEvent: an event as it is written to and read from an engine
//   - Filter: criteria for querying events by type and JSON payload predicates
//   - Logger, ContextualLogger: optional logging hooks for engines and handlers
//   - MetricsCollector, TracingCollector: dependency-free observability hooks,
//     implemented on OpenTelemetry by oteladapters
//
// Engines:
//   - memoryengine: in-process, non-durable
//   - fileengine: a single JSON file
//   - postgresengine: PostgreSQL via pgx, database/sql or sqlx
//
// Every engine accepts WithMetrics, WithTracing and WithContextualLogger options. Each Query, Append
// or Clear then becomes one span and reports its duration, failures are counted by error type.
//
// Common usage pattern:
//
//	filter := eventstore.BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(core.RestockOrderedEventType).
//		AndAnyPredicateOf(eventstore.P("ProductID", productID)).
//		Finalize()
//
//	events, err := store.Query(ctx, filter)
//	if err != nil {
//		// handle error
//	}
//
//	newEvent, _ := eventstore.BuildStorableEvent(eventType, now, payload, metadata)
//	err = store.Append(ctx, newEvent)
package eventstore
