// Command restockctl is an interactive shell for the restock example.
//
// It reads one command per line from stdin and runs it against the event store selected
// by the RESTOCK_* environment variables or the -store and -file flags:
//
//	RESTOCK_STORE=postgres RESTOCK_POSTGRES_DSN=postgres://localhost/restock go run ./example/restockctl
//	go run ./example/restockctl -store file -file ./events.json
//
// Handlers and the engine report to OpenTelemetry. The metrics command prints what was collected,
// spans go to stderr with -traces stdout or to an OTLP collector with RESTOCK_OTEL_TRACES=otlp
// and RESTOCK_OTEL_ENDPOINT. Log lines carry the trace and span ID of the active span.
package main
