// Package config provides the runtime configuration and the database connection factories
// for the example: Restocking products in a small warehouse.
//
// Settings come from RESTOCK_* environment variables parsed with caarlos0/env. OpenEventStore
// turns a Config into one of the engines: in-memory, a JSON file, or PostgreSQL through
// pgx.Pool, sql.DB (lib/pq) or sqlx.DB. SetupTelemetry builds the OpenTelemetry tracer and meter
// providers whose collectors are handed to the engines and handlers.
//
// This package is part of the shell (infrastructure) layer.
package config
