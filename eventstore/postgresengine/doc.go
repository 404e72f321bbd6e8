// Package postgresengine provides a PostgreSQL implementation of the event store contract.
//
// Events live in a single table ordered by a bigserial sequence number. Filters are translated
// with goqu into event type comparisons and jsonb containment checks (payload @> '{"key": "val"}'),
// so a GIN index on the payload column serves the per-product queries.
//
// Key features:
//   - Multiple database adapter support (pgx, database/sql with lib/pq, sqlx)
//   - Atomic multi-event appends via a single multi-row INSERT
//   - Schema bootstrap with EnsureSchema
//   - Configurable table name and optional observability hooks
//
// Appends are unconditional. There is no optimistic concurrency check, the last writer simply appends.
//
// Usage:
//
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(
//		db,
//		postgresengine.WithTableName("restock_events"),
//		postgresengine.WithLogger(logger),
//	)
//
//	_ = store.EnsureSchema(ctx)
//	events, _ := store.Query(ctx, filter)
//	err := store.Append(ctx, newEvent)
package postgresengine
