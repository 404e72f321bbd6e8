// Package fileengine provides an event store backed by a single JSON file.
//
// The file holds a JSON array of records with the event type, the occurrence timestamp,
// and the raw payload and metadata JSON. The whole log is loaded on Open and the file
// is rewritten atomically on every Append and Clear, so the order of events and their
// timestamps survive a restart.
//
// Usage:
//
//	store, err := fileengine.Open("./events.json", fileengine.WithLogger(logger))
//	if err != nil {
//		// invalid JSON or unreadable file
//	}
//
//	err = store.Append(ctx, storableEvent)
//	events, err := store.Query(ctx, filter)
//
// The engine is meant for a single process. It doesn't coordinate concurrent writers
// across processes.
package fileengine
