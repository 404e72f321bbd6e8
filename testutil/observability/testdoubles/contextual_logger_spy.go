package testdoubles

import (
	"context"
	"slices"
	"sync"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
)

// SpyContextualLogRecord is one captured log call.
type SpyContextualLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// Arg returns the value logged for key, or nil.
func (r SpyContextualLogRecord) Arg(key string) any {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if r.Args[i] == key {
			return r.Args[i+1]
		}
	}

	return nil
}

// ContextualLoggerSpy captures all calls of the eventstore.ContextualLogger methods.
type ContextualLoggerSpy struct {
	mu          sync.Mutex
	records     []SpyContextualLogRecord
	recordCalls bool
}

// NewContextualLoggerSpy creates a ContextualLoggerSpy; with recordCalls false it records nothing.
func NewContextualLoggerSpy(recordCalls bool) *ContextualLoggerSpy {
	return &ContextualLoggerSpy{recordCalls: recordCalls}
}

func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	if !s.recordCalls {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyContextualLogRecord{
		Level:   level,
		Message: msg,
		Args:    slices.Clone(args),
		Context: ctx,
	})
}

// Records returns a copy of all captured records in call order.
func (s *ContextualLoggerSpy) Records() []SpyContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyContextualLogRecord(nil), s.records...)
}

// RecordsForLevel returns the captured records of one level ("debug", "info", "warn", "error").
func (s *ContextualLoggerSpy) RecordsForLevel(level string) []SpyContextualLogRecord {
	found := make([]SpyContextualLogRecord, 0)
	for _, r := range s.Records() {
		if r.Level == level {
			found = append(found, r)
		}
	}

	return found
}

// HasRecord reports whether a record with this level and message was captured.
func (s *ContextualLoggerSpy) HasRecord(level, msg string) bool {
	for _, r := range s.RecordsForLevel(level) {
		if r.Message == msg {
			return true
		}
	}

	return false
}

var _ eventstore.ContextualLogger = (*ContextualLoggerSpy)(nil)
