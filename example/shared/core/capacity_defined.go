package core

import (
	"time"
)

// CapacityDefinedEventType is the event type identifier.
const CapacityDefinedEventType = "capacity_defined"

// CapacityDefined represents that the storage capacity of a product was set.
// A later CapacityDefined replaces an earlier one.
type CapacityDefined struct {
	ProductID  ProductIDString
	Capacity   QuantityInt
	RecordedAt RecordedAtTS
}

// BuildCapacityDefined creates a new CapacityDefined event.
func BuildCapacityDefined(productID string, capacity int, recordedAt time.Time) CapacityDefined {
	return CapacityDefined{
		ProductID:  productID,
		Capacity:   capacity,
		RecordedAt: ToRecordedAt(recordedAt),
	}
}

// IsEventType returns the event type identifier.
func (e CapacityDefined) IsEventType() string {
	return CapacityDefinedEventType
}

// HasRecordedAt returns when this event was recorded.
func (e CapacityDefined) HasRecordedAt() time.Time {
	return e.RecordedAt
}
