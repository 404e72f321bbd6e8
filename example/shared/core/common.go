package core

import (
	"time"
)

// Instead of implementing full value objects, I'm using some alias types and helper methods here ...

// ProductIDString represents a product identifier. It may be empty when only one product is tracked.
type ProductIDString = string

// QuantityInt represents a number of units. It is not validated, zero and negative values pass through.
type QuantityInt = int

// RecordedAtTS represents when an event was recorded.
type RecordedAtTS = time.Time

// ToRecordedAt converts a time to RecordedAtTS with UTC normalization and microsecond precision
func ToRecordedAt(t time.Time) RecordedAtTS {
	return t.UTC().Truncate(time.Microsecond)
}
