package config

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/fileengine"
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/postgresengine"
)

// EventStore is what every engine offers to the handlers and the CLI.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, error)
	Append(ctx context.Context, event eventstore.StorableEvent, additionalEvents ...eventstore.StorableEvent) error
	Clear(ctx context.Context) error
}

// Observability holds the optional collectors every engine is opened with. The zero value observes nothing.
type Observability struct {
	Logger           eventstore.Logger
	ContextualLogger eventstore.ContextualLogger
	Metrics          eventstore.MetricsCollector
	Tracing          eventstore.TracingCollector
}

// CloseFunc releases the resources of an opened EventStore.
type CloseFunc func()

func noopClose() {}

// OpenEventStore builds the engine selected by the Config.
// For PostgreSQL it connects with the configured client library and ensures the schema.
func OpenEventStore(ctx context.Context, cfg Config, observability Observability) (EventStore, CloseFunc, error) {
	if err := cfg.Validate(); err != nil {
		return nil, noopClose, err
	}

	switch cfg.Store {
	case StoreMemory:
		store := memoryengine.NewEventStore(
			memoryengine.WithLogger(observability.Logger),
			memoryengine.WithContextualLogger(observability.ContextualLogger),
			memoryengine.WithMetrics(observability.Metrics),
			memoryengine.WithTracing(observability.Tracing),
		)

		return store, noopClose, nil

	case StoreFile:
		store, err := fileengine.Open(
			cfg.EventsFile,
			fileengine.WithLogger(observability.Logger),
			fileengine.WithContextualLogger(observability.ContextualLogger),
			fileengine.WithMetrics(observability.Metrics),
			fileengine.WithTracing(observability.Tracing),
		)
		if err != nil {
			return nil, noopClose, err
		}

		return store, noopClose, nil

	default:
		return openPostgresEventStore(ctx, cfg, observability)
	}
}

func openPostgresEventStore(ctx context.Context, cfg Config, observability Observability) (EventStore, CloseFunc, error) {
	options := []postgresengine.Option{
		postgresengine.WithTableName(cfg.PostgresTable),
		postgresengine.WithLogger(observability.Logger),
		postgresengine.WithContextualLogger(observability.ContextualLogger),
		postgresengine.WithMetrics(observability.Metrics),
		postgresengine.WithTracing(observability.Tracing),
	}

	var store postgresengine.EventStore
	var closeFn CloseFunc
	var err error

	switch cfg.PostgresDriver {
	case DriverSQL:
		db, openErr := PostgresSQLDB(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, noopClose, openErr
		}

		closeFn = func() { _ = db.Close() }
		store, err = postgresengine.NewEventStoreFromSQLDB(db, options...)

	case DriverSQLX:
		db, openErr := PostgresSQLX(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, noopClose, openErr
		}

		closeFn = func() { _ = db.Close() }
		store, err = postgresengine.NewEventStoreFromSQLX(db, options...)

	default:
		pool, openErr := PostgresPGXPool(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, noopClose, openErr
		}

		closeFn = pool.Close
		store, err = postgresengine.NewEventStoreFromPGXPool(pool, options...)
	}

	if err != nil {
		closeFn()
		return nil, noopClose, err
	}

	if schemaErr := store.EnsureSchema(ctx); schemaErr != nil {
		closeFn()
		return nil, noopClose, fmt.Errorf("prepare postgres event store: %w", schemaErr)
	}

	return store, closeFn, nil
}
