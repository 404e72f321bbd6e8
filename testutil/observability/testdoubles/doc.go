// Package testdoubles provides recording implementations of the eventstore observability interfaces.
//
// The spies capture metrics, spans, and contextual log calls so tests of the engines, the
// handler wrappers, and the saga can assert on what was observed without an OpenTelemetry SDK.
package testdoubles
