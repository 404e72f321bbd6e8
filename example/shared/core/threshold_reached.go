package core

import (
	"time"
)

// ThresholdReachedEventType is the event type identifier.
const ThresholdReachedEventType = "threshold_reached"

// ThresholdReached represents that the stock of a product dropped to Quantity units.
// It is the trigger for the restock saga.
type ThresholdReached struct {
	ProductID  ProductIDString
	Quantity   QuantityInt
	RecordedAt RecordedAtTS
}

// BuildThresholdReached creates a new ThresholdReached event.
func BuildThresholdReached(productID string, quantity int, recordedAt time.Time) ThresholdReached {
	return ThresholdReached{
		ProductID:  productID,
		Quantity:   quantity,
		RecordedAt: ToRecordedAt(recordedAt),
	}
}

// IsEventType returns the event type identifier.
func (e ThresholdReached) IsEventType() string {
	return ThresholdReachedEventType
}

// HasRecordedAt returns when this event was recorded.
func (e ThresholdReached) HasRecordedAt() time.Time {
	return e.RecordedAt
}
