package fileengine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/internal/observation"
)

const (
	defaultFilePermissions   = 0o644
	tempFilePattern          = ".events-*.json"
	logMsgEventsLoaded       = "eventstore operation: events loaded"
	logMsgQueryCompleted     = "eventstore operation: query completed"
	logMsgEventsAppended     = "eventstore operation: events appended"
	logMsgEventsCleared      = "eventstore operation: events cleared"
	logMsgWriteFailed        = "writing events file failed"
	logMsgRemoveTempFailed   = "failed to remove temporary events file"
	logAttrError             = "error"
	logAttrPath              = "path"
	logAttrEventCount        = "event_count"
	logAttrDurationMS        = "duration_ms"
	millisecondsPerNanoFloat = 1e6
	engineName               = "file"
)

var (
	// ErrEmptyFilePath is returned when Open is called without a path.
	ErrEmptyFilePath = errors.New("events file path must not be empty")

	// ErrLoadingEventsFileFailed is returned when the events file exists but can't be read or decoded.
	ErrLoadingEventsFileFailed = errors.New("loading events file failed")

	// ErrSavingEventsFileFailed is returned when the events file can't be written.
	ErrSavingEventsFileFailed = errors.New("saving events file failed")

	errEncodingEventsFailed = errors.New("encoding events failed")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fileRecord is the on-disk representation of one StorableEvent.
type fileRecord struct {
	EventType  string              `json:"event_type"`
	OccurredAt time.Time           `json:"occurred_at"`
	Payload    jsoniter.RawMessage `json:"payload"`
	Metadata   jsoniter.RawMessage `json:"metadata"`
}

// EventStore keeps the event log in memory and writes it through to a single JSON file on every change.
type EventStore struct {
	mu          sync.Mutex
	path        string
	events      eventstore.StorableEvents
	logger      eventstore.Logger
	instruments observation.Instruments
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore)

// WithLogger sets the logger for the EventStore.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) {
		es.logger = logger
	}
}

// WithMetrics sets the metrics collector for query, append, and clear durations and event counts.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(es *EventStore) {
		es.instruments.Metrics = collector
	}
}

// WithTracing sets the tracing collector; each operation becomes one span.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(es *EventStore) {
		es.instruments.Tracing = collector
	}
}

// WithContextualLogger sets a logger that receives the request context with every log call.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) {
		es.instruments.ContextualLogger = logger
	}
}

// Open creates an EventStore backed by the file at path and loads its events.
// A missing file is treated as an empty log; the file is created on the first write.
func Open(path string, options ...Option) (*EventStore, error) {
	if path == "" {
		return nil, ErrEmptyFilePath
	}

	es := &EventStore{
		path:   path,
		events: make(eventstore.StorableEvents, 0),
	}

	for _, option := range options {
		option(es)
	}

	if err := es.load(); err != nil {
		return nil, err
	}

	return es, nil
}

func (es *EventStore) load() error {
	start := time.Now()

	data, readErr := os.ReadFile(es.path)
	if errors.Is(readErr, fs.ErrNotExist) {
		return nil
	}

	if readErr != nil {
		return errors.Join(ErrLoadingEventsFileFailed, readErr)
	}

	records := make([]fileRecord, 0)
	if err := json.Unmarshal(data, &records); err != nil {
		return errors.Join(ErrLoadingEventsFileFailed, err)
	}

	events := make(eventstore.StorableEvents, 0, len(records))
	for _, record := range records {
		event, buildErr := eventstore.BuildStorableEvent(record.EventType, record.OccurredAt, record.Payload, record.Metadata)
		if buildErr != nil {
			return errors.Join(ErrLoadingEventsFileFailed, eventstore.ErrBuildingStorableEventFailed, buildErr)
		}

		events = append(events, event)
	}

	es.events = events

	if es.logger != nil {
		es.logger.Info(
			logMsgEventsLoaded,
			logAttrPath, es.path,
			logAttrEventCount, len(events),
			logAttrDurationMS, float64(time.Since(start).Nanoseconds())/millisecondsPerNanoFloat,
		)
	}

	return nil
}

// Path returns the location of the events file.
func (es *EventStore) Path() string {
	return es.path
}

// Query returns all events matching the filter, in append order.
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, error) {
	observer, _ := es.instruments.Start(ctx, engineName, observation.OperationQuery, nil)

	es.mu.Lock()
	defer es.mu.Unlock()

	result := make(eventstore.StorableEvents, 0)
	for _, event := range es.events {
		if filter.Matches(event) {
			result = append(result, event)
		}
	}

	if es.logger != nil {
		es.logger.Debug(logMsgQueryCompleted, logAttrPath, es.path, logAttrEventCount, len(result))
	}

	observer.Succeed(len(result))

	return result, nil
}

// Append adds one or multiple events to the end of the log and saves the file.
// On a failed save, the in-memory log is left unchanged.
func (es *EventStore) Append(
	ctx context.Context,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	observer, _ := es.instruments.Start(ctx, engineName, observation.OperationAppend, map[string]string{
		observation.AttrEventType: event.EventType,
	})

	es.mu.Lock()
	defer es.mu.Unlock()

	updated := make(eventstore.StorableEvents, 0, len(es.events)+1+len(additionalEvents))
	updated = append(updated, es.events...)
	updated = append(updated, event)
	updated = append(updated, additionalEvents...)

	if err := es.save(updated); err != nil {
		observer.Fail(saveErrorType(err), err)
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	es.events = updated

	if es.logger != nil {
		es.logger.Info(logMsgEventsAppended, logAttrPath, es.path, logAttrEventCount, 1+len(additionalEvents))
	}

	observer.Succeed(1 + len(additionalEvents))

	return nil
}

// Clear removes all events and saves an empty file.
func (es *EventStore) Clear(ctx context.Context) error {
	observer, _ := es.instruments.Start(ctx, engineName, observation.OperationClear, nil)

	es.mu.Lock()
	defer es.mu.Unlock()

	empty := make(eventstore.StorableEvents, 0)
	if err := es.save(empty); err != nil {
		observer.Fail(saveErrorType(err), err)
		return errors.Join(eventstore.ErrClearingEventsFailed, err)
	}

	es.events = empty

	if es.logger != nil {
		es.logger.Info(logMsgEventsCleared, logAttrPath, es.path)
	}

	observer.Succeed(0)

	return nil
}

// save replaces the events file atomically by writing a temporary file next to it and renaming it.
func (es *EventStore) save(events eventstore.StorableEvents) error {
	records := make([]fileRecord, 0, len(events))
	for _, event := range events {
		records = append(records, fileRecord{
			EventType:  event.EventType,
			OccurredAt: event.OccurredAt,
			Payload:    event.PayloadJSON,
			Metadata:   event.MetadataJSON,
		})
	}

	data, marshalErr := json.MarshalIndent(records, "", "  ")
	if marshalErr != nil {
		return errors.Join(ErrSavingEventsFileFailed, errEncodingEventsFailed, marshalErr)
	}

	tmp, createErr := os.CreateTemp(filepath.Dir(es.path), tempFilePattern)
	if createErr != nil {
		return es.saveFailed(createErr)
	}

	tmpName := tmp.Name()
	defer es.removeTemp(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return es.saveFailed(err)
	}

	if err := tmp.Chmod(defaultFilePermissions); err != nil {
		_ = tmp.Close()
		return es.saveFailed(err)
	}

	if err := tmp.Close(); err != nil {
		return es.saveFailed(err)
	}

	if err := os.Rename(tmpName, es.path); err != nil {
		return es.saveFailed(err)
	}

	return nil
}

func (es *EventStore) saveFailed(err error) error {
	if es.logger != nil {
		es.logger.Error(logMsgWriteFailed, logAttrPath, es.path, logAttrError, err.Error())
	}

	return errors.Join(ErrSavingEventsFileFailed, err)
}

func saveErrorType(err error) string {
	if errors.Is(err, errEncodingEventsFailed) {
		return observation.ErrorTypeEncode
	}

	return observation.ErrorTypeFileIO
}

// removeTemp cleans up the temporary file if the rename didn't happen.
func (es *EventStore) removeTemp(name string) {
	err := os.Remove(name)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return
	}

	if es.logger != nil {
		es.logger.Warn(logMsgRemoveTempFailed, logAttrPath, name, logAttrError, err.Error())
	}
}
