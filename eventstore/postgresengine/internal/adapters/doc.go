// Package adapters hides the differences between the supported PostgreSQL client libraries.
//
// pgxpool.Pool, sql.DB and sqlx.DB are each wrapped behind DBAdapter, so the event store
// only deals with plain SQL strings, rows and affected-row counts.
package adapters
