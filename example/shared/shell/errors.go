package shell

import "errors"

var (
	// ErrNilEventStore is returned when a handler is constructed without an event store.
	ErrNilEventStore = errors.New("event store must not be nil")
)
