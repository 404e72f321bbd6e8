package core

import (
	"time"
)

// ProductAddedEventType is the event type identifier.
const ProductAddedEventType = "add_product"

// ProductAdded represents that a product was added to the catalog.
type ProductAdded struct {
	ProductID  ProductIDString
	RecordedAt RecordedAtTS
}

// BuildProductAdded creates a new ProductAdded event.
func BuildProductAdded(productID string, recordedAt time.Time) ProductAdded {
	return ProductAdded{
		ProductID:  productID,
		RecordedAt: ToRecordedAt(recordedAt),
	}
}

// IsEventType returns the event type identifier.
func (e ProductAdded) IsEventType() string {
	return ProductAddedEventType
}

// HasRecordedAt returns when this event was recorded.
func (e ProductAdded) HasRecordedAt() time.Time {
	return e.RecordedAt
}
