package eventstore

import (
	"slices"

	jsoniter "github.com/json-iterator/go"
)

// Matches reports whether the StorableEvent is selected by the Filter.
// It is the in-process equivalent of the SQL the postgres engine generates and is used by engines
// which can't push the filter down into a query language.
func (f Filter) Matches(event StorableEvent) bool {
	if len(f.items) == 0 {
		return true
	}

	for _, item := range f.items {
		if item.matches(event) {
			return true
		}
	}

	return false
}

func (fi FilterItem) matches(event StorableEvent) bool {
	if len(fi.eventTypes) > 0 && !slices.Contains(fi.eventTypes, event.EventType) {
		return false
	}

	if len(fi.predicates) == 0 {
		return true
	}

	for _, predicate := range fi.predicates {
		val := jsoniter.Get(event.PayloadJSON, predicate.key)
		if val.ValueType() == jsoniter.StringValue && val.ToString() == predicate.val {
			return true
		}
	}

	return false
}
