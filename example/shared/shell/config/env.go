package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/caarlos0/env/v11"
)

// Store kinds selectable with RESTOCK_STORE.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// PostgreSQL client libraries selectable with RESTOCK_POSTGRES_DRIVER.
const (
	DriverPGX  = "pgx"
	DriverSQL  = "sql"
	DriverSQLX = "sqlx"
)

var (
	// ErrUnknownStore is returned for a RESTOCK_STORE value that names no engine.
	ErrUnknownStore = errors.New("unknown event store")

	// ErrUnknownPostgresDriver is returned for a RESTOCK_POSTGRES_DRIVER value that names no client library.
	ErrUnknownPostgresDriver = errors.New("unknown postgres driver")

	// ErrMissingPostgresDSN is returned when the postgres store is selected without a DSN.
	ErrMissingPostgresDSN = errors.New("postgres store needs RESTOCK_POSTGRES_DSN")

	// ErrUnknownTraceExporter is returned for a RESTOCK_OTEL_TRACES value that names no exporter.
	ErrUnknownTraceExporter = errors.New("unknown trace exporter")

	// ErrMissingOTelEndpoint is returned when otlp traces are selected without an endpoint.
	ErrMissingOTelEndpoint = errors.New("otlp traces need RESTOCK_OTEL_ENDPOINT")
)

// Config holds the runtime configuration of the restock example.
type Config struct {
	Store          string     `env:"RESTOCK_STORE"           envDefault:"file"`
	EventsFile     string     `env:"RESTOCK_EVENTS_FILE"     envDefault:"./events.json"`
	PostgresDSN    string     `env:"RESTOCK_POSTGRES_DSN"`
	PostgresDriver string     `env:"RESTOCK_POSTGRES_DRIVER" envDefault:"pgx"`
	PostgresTable  string     `env:"RESTOCK_POSTGRES_TABLE"  envDefault:"events"`
	LogLevel       slog.Level `env:"RESTOCK_LOG_LEVEL"       envDefault:"warn"`
	ServiceName    string     `env:"RESTOCK_SERVICE_NAME"    envDefault:"restockctl"`
	OTelTraces     string     `env:"RESTOCK_OTEL_TRACES"     envDefault:"none"`
	OTelEndpoint   string     `env:"RESTOCK_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// Load reads the Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the combination of settings. Flags may change a loaded Config, so callers validate again after overriding.
func (c Config) Validate() error {
	if !slices.Contains([]string{StoreMemory, StoreFile, StorePostgres}, c.Store) {
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store)
	}

	if err := c.validateTelemetry(); err != nil {
		return err
	}

	if c.Store != StorePostgres {
		return nil
	}

	if c.PostgresDSN == "" {
		return ErrMissingPostgresDSN
	}

	if !slices.Contains([]string{DriverPGX, DriverSQL, DriverSQLX}, c.PostgresDriver) {
		return fmt.Errorf("%w: %q", ErrUnknownPostgresDriver, c.PostgresDriver)
	}

	return nil
}

func (c Config) validateTelemetry() error {
	if c.OTelTraces == "" {
		return nil
	}

	if !slices.Contains([]string{TracesNone, TracesStdout, TracesOTLP}, c.OTelTraces) {
		return fmt.Errorf("%w: %q", ErrUnknownTraceExporter, c.OTelTraces)
	}

	if c.OTelTraces == TracesOTLP && c.OTelEndpoint == "" {
		return ErrMissingOTelEndpoint
	}

	return nil
}
