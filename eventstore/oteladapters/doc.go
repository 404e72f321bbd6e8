// Package oteladapters implements the eventstore observability interfaces on top of OpenTelemetry.
//
// MetricsCollector maps durations to histograms (in seconds), counters to Int64Counters,
// and values to gauges. TracingCollector turns spans into OpenTelemetry spans.
// TraceContextHandler is a slog.Handler that adds the trace and span IDs of the
// context's span to every record, so a *slog.Logger built on it is a
// trace-correlated eventstore.ContextualLogger.
package oteladapters
