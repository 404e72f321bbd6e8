package testdoubles

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
)

// MetricKind tells which collector method produced a SpyMetricRecord.
type MetricKind string

// The metric kinds a MetricsCollectorSpy records.
const (
	MetricKindDuration MetricKind = "duration"
	MetricKindCounter  MetricKind = "counter"
	MetricKindValue    MetricKind = "value"
)

// SpyMetricRecord is one captured collector call.
type SpyMetricRecord struct {
	Kind        MetricKind
	Metric      string
	Duration    time.Duration
	Value       float64
	Labels      map[string]string
	WithContext bool
}

// MetricsCollectorSpy captures all calls of the eventstore.ContextualMetricsCollector methods.
type MetricsCollectorSpy struct {
	mu          sync.Mutex
	records     []SpyMetricRecord
	recordCalls bool
}

// NewMetricsCollectorSpy creates a MetricsCollectorSpy; with recordCalls false it discards everything.
func NewMetricsCollectorSpy(recordCalls bool) *MetricsCollectorSpy {
	return &MetricsCollectorSpy{recordCalls: recordCalls}
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: MetricKindDuration, Metric: metric, Duration: duration, Labels: labels})
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: MetricKindCounter, Metric: metric, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: MetricKindValue, Metric: metric, Value: value, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordDurationContext(
	_ context.Context,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {
	s.record(SpyMetricRecord{Kind: MetricKindDuration, Metric: metric, Duration: duration, Labels: labels, WithContext: true})
}

func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: MetricKindCounter, Metric: metric, Labels: labels, WithContext: true})
}

func (s *MetricsCollectorSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: MetricKindValue, Metric: metric, Value: value, Labels: labels, WithContext: true})
}

func (s *MetricsCollectorSpy) record(r SpyMetricRecord) {
	if !s.recordCalls {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r.Labels = maps.Clone(r.Labels)
	s.records = append(s.records, r)
}

// Records returns a copy of all captured records in call order.
func (s *MetricsCollectorSpy) Records() []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyMetricRecord(nil), s.records...)
}

// Reset drops all captured records.
func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

// CountRecordsForMetric counts the captured records of any kind for the metric.
func (s *MetricsCollectorSpy) CountRecordsForMetric(metric string) int {
	count := 0
	for _, r := range s.Records() {
		if r.Metric == metric {
			count++
		}
	}

	return count
}

// HasDurationRecordForMetric starts a fluent check for a duration record.
func (s *MetricsCollectorSpy) HasDurationRecordForMetric(metric string) *MetricRecordMatcher {
	return s.matcher(MetricKindDuration, metric)
}

// HasCounterRecordForMetric starts a fluent check for a counter record.
func (s *MetricsCollectorSpy) HasCounterRecordForMetric(metric string) *MetricRecordMatcher {
	return s.matcher(MetricKindCounter, metric)
}

// HasValueRecordForMetric starts a fluent check for a value record.
func (s *MetricsCollectorSpy) HasValueRecordForMetric(metric string) *MetricRecordMatcher {
	return s.matcher(MetricKindValue, metric)
}

func (s *MetricsCollectorSpy) matcher(kind MetricKind, metric string) *MetricRecordMatcher {
	candidates := make([]SpyMetricRecord, 0)
	for _, r := range s.Records() {
		if r.Kind == kind && r.Metric == metric {
			candidates = append(candidates, r)
		}
	}

	return &MetricRecordMatcher{candidates: candidates}
}

// MetricRecordMatcher narrows the candidate records step by step; Assert reports whether any is left.
type MetricRecordMatcher struct {
	candidates []SpyMetricRecord
}

// WithOperation keeps the records whose "operation" label matches.
func (m *MetricRecordMatcher) WithOperation(operation string) *MetricRecordMatcher {
	return m.WithLabel("operation", operation)
}

// WithStatus keeps the records whose "status" label matches.
func (m *MetricRecordMatcher) WithStatus(status string) *MetricRecordMatcher {
	return m.WithLabel("status", status)
}

// WithErrorType keeps the records whose "error_type" label matches.
func (m *MetricRecordMatcher) WithErrorType(errorType string) *MetricRecordMatcher {
	return m.WithLabel("error_type", errorType)
}

// WithLabel keeps the records carrying the label with the given value.
func (m *MetricRecordMatcher) WithLabel(key, value string) *MetricRecordMatcher {
	return m.keep(func(r SpyMetricRecord) bool { return r.Labels[key] == value })
}

// WithValue keeps the value records carrying exactly this value.
func (m *MetricRecordMatcher) WithValue(value float64) *MetricRecordMatcher {
	return m.keep(func(r SpyMetricRecord) bool { return r.Value == value })
}

// WithContext keeps the records produced by the context-aware collector methods.
func (m *MetricRecordMatcher) WithContext() *MetricRecordMatcher {
	return m.keep(func(r SpyMetricRecord) bool { return r.WithContext })
}

func (m *MetricRecordMatcher) keep(match func(SpyMetricRecord) bool) *MetricRecordMatcher {
	kept := make([]SpyMetricRecord, 0, len(m.candidates))
	for _, r := range m.candidates {
		if match(r) {
			kept = append(kept, r)
		}
	}

	m.candidates = kept

	return m
}

// Assert returns true if at least one record satisfied the whole chain.
func (m *MetricRecordMatcher) Assert() bool {
	return len(m.candidates) > 0
}

var _ eventstore.ContextualMetricsCollector = (*MetricsCollectorSpy)(nil)
