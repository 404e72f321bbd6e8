package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
)

// SpySpanRecord is one finished span.
type SpySpanRecord struct {
	Name            string
	StartAttributes map[string]string
	EndAttributes   map[string]string
	Status          string
}

// SpySpanContext collects what is set on a span between StartSpan and FinishSpan.
type SpySpanContext struct {
	name       string
	startAttrs map[string]string
	attrs      map[string]string
	status     string
}

// SetStatus implements eventstore.SpanContext.
func (s *SpySpanContext) SetStatus(status string) {
	s.status = status
}

// AddAttribute implements eventstore.SpanContext.
func (s *SpySpanContext) AddAttribute(key, value string) {
	s.attrs[key] = value
}

type spanKey struct{}

// SpanNameFromContext returns the name of the innermost span started on ctx by a TracingCollectorSpy.
func SpanNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(spanKey{}).(string)

	return name, ok
}

// TracingCollectorSpy records every span that gets finished.
type TracingCollectorSpy struct {
	mu          sync.Mutex
	spans       []SpySpanRecord
	recordCalls bool
}

// NewTracingCollectorSpy creates a TracingCollectorSpy; with recordCalls false it records nothing.
func NewTracingCollectorSpy(recordCalls bool) *TracingCollectorSpy {
	return &TracingCollectorSpy{recordCalls: recordCalls}
}

// StartSpan implements eventstore.TracingCollector.
// The returned context carries the span name, so nested spans can be checked with SpanNameFromContext.
func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, eventstore.SpanContext) {

	span := &SpySpanContext{
		name:       name,
		startAttrs: maps.Clone(attrs),
		attrs:      make(map[string]string),
	}

	return context.WithValue(ctx, spanKey{}, name), span
}

// FinishSpan implements eventstore.TracingCollector.
func (s *TracingCollectorSpy) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpySpanContext)
	if !ok || !s.recordCalls {
		return
	}

	endAttrs := maps.Clone(span.attrs)
	maps.Copy(endAttrs, attrs)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = append(s.spans, SpySpanRecord{
		Name:            span.name,
		StartAttributes: span.startAttrs,
		EndAttributes:   endAttrs,
		Status:          status,
	})
}

// SpanRecords returns a copy of all finished spans in finishing order.
func (s *TracingCollectorSpy) SpanRecords() []SpySpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpySpanRecord(nil), s.spans...)
}

// HasSpanRecordForName starts a fluent check for a finished span.
func (s *TracingCollectorSpy) HasSpanRecordForName(name string) *SpanRecordMatcher {
	candidates := make([]SpySpanRecord, 0)
	for _, span := range s.SpanRecords() {
		if span.Name == name {
			candidates = append(candidates, span)
		}
	}

	return &SpanRecordMatcher{candidates: candidates}
}

// SpanRecordMatcher narrows the candidate spans step by step; Assert reports whether any is left.
type SpanRecordMatcher struct {
	candidates []SpySpanRecord
}

// WithStatus keeps the spans finished with this status.
func (m *SpanRecordMatcher) WithStatus(status string) *SpanRecordMatcher {
	return m.keep(func(r SpySpanRecord) bool { return r.Status == status })
}

// WithStartAttribute keeps the spans started with this attribute.
func (m *SpanRecordMatcher) WithStartAttribute(key, value string) *SpanRecordMatcher {
	return m.keep(func(r SpySpanRecord) bool { return r.StartAttributes[key] == value })
}

// WithEndAttribute keeps the spans finished with this attribute.
func (m *SpanRecordMatcher) WithEndAttribute(key, value string) *SpanRecordMatcher {
	return m.keep(func(r SpySpanRecord) bool { return r.EndAttributes[key] == value })
}

func (m *SpanRecordMatcher) keep(match func(SpySpanRecord) bool) *SpanRecordMatcher {
	kept := make([]SpySpanRecord, 0, len(m.candidates))
	for _, r := range m.candidates {
		if match(r) {
			kept = append(kept, r)
		}
	}

	m.candidates = kept

	return m
}

// Assert returns true if at least one span satisfied the whole chain.
func (m *SpanRecordMatcher) Assert() bool {
	return len(m.candidates) > 0
}

var _ eventstore.TracingCollector = (*TracingCollectorSpy)(nil)
