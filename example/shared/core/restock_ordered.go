package core

import (
	"time"
)

// RestockOrderedEventType is the event type identifier.
const RestockOrderedEventType = "restock_ordered"

// RestockOrdered represents that a restock of Quantity units was ordered.
type RestockOrdered struct {
	ProductID  ProductIDString
	Quantity   QuantityInt
	RecordedAt RecordedAtTS
}

// BuildRestockOrdered creates a new RestockOrdered event.
func BuildRestockOrdered(productID string, quantity int, recordedAt time.Time) RestockOrdered {
	return RestockOrdered{
		ProductID:  productID,
		Quantity:   quantity,
		RecordedAt: ToRecordedAt(recordedAt),
	}
}

// IsEventType returns the event type identifier.
func (e RestockOrdered) IsEventType() string {
	return RestockOrderedEventType
}

// HasRecordedAt returns when this event was recorded.
func (e RestockOrdered) HasRecordedAt() time.Time {
	return e.RecordedAt
}
