package eventstore

import (
	"errors"
)

var (
	// ErrEmptyEventsTableName is returned when an empty table name is supplied to an engine.
	ErrEmptyEventsTableName = errors.New("events table name must not be empty")

	// ErrNilDatabaseConnection is returned when a nil database handle is supplied to an engine.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrQueryingEventsFailed is returned when reading events from the storage backend fails.
	ErrQueryingEventsFailed = errors.New("querying events failed")

	// ErrAppendingEventFailed is returned when writing events to the storage backend fails.
	ErrAppendingEventFailed = errors.New("appending event failed")

	// ErrClearingEventsFailed is returned when removing all events from the storage backend fails.
	ErrClearingEventsFailed = errors.New("clearing events failed")

	// ErrBuildingQueryFailed is returned when a storage query can't be built.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrScanningDBRowFailed is returned when a database row can't be scanned.
	ErrScanningDBRowFailed = errors.New("scanning db row failed")

	// ErrBuildingStorableEventFailed is returned when a stored record can't be turned back into a StorableEvent.
	ErrBuildingStorableEventFailed = errors.New("building storable event failed")
)
