package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/oteladapters"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/shell/config"
)

const telemetryShutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("restockctl failed: %v", err)
	}
}

func run() error {
	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}

	parseFlags(&cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Records carry the trace and span ID of the operation that logged them.
	logger := slog.New(oteladapters.NewTraceContextHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry, err := config.SetupTelemetry(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(telemetry, logger)

	store, closeStore, err := config.OpenEventStore(ctx, cfg, config.Observability{
		Logger:           logger,
		ContextualLogger: logger,
		Metrics:          telemetry.Metrics,
		Tracing:          telemetry.Tracing,
	})
	if err != nil {
		return err
	}
	defer closeStore()

	session, err := NewSession(
		store,
		os.Stdout,
		WithContextualLogger(logger),
		WithMetrics(telemetry.Metrics),
		WithTracing(telemetry.Tracing),
		WithMetricsSource(telemetry),
	)
	if err != nil {
		return err
	}

	return session.Run(ctx, os.Stdin)
}

func shutdownTelemetry(telemetry *config.Telemetry, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()

	if err := telemetry.Shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown failed", "error", err)
	}
}

// parseFlags lets the command line override the store selection of the environment.
func parseFlags(cfg *config.Config) {
	var (
		store  = flag.String("store", cfg.Store, "Event store engine: memory, file or postgres")
		file   = flag.String("file", cfg.EventsFile, "Events file of the file store")
		traces = flag.String("traces", cfg.OTelTraces, "Trace exporter: none, stdout or otlp")
	)

	flag.Parse()

	cfg.Store = *store
	cfg.EventsFile = *file
	cfg.OTelTraces = *traces
}
