package productcatalog

import (
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
)

// defaultProductID is the catalog entry for events without a ProductID.
const defaultProductID = "default"

// Project implements the query logic to build the product catalog.
// This is a pure function with no side effects, each call returns a new Catalog.
//
// Query Logic:
//
//	GIVEN: All ProductAdded and RestockOrdered events
//	WHEN: ProductCatalog query is executed
//	THEN: Catalog is returned with the summed restock quantity per product
//	INCLUDES: Added products without restocks, with quantity 0
//	INCLUDES: Restocked products that were never added
func Project(history core.DomainEvents, _ Query) Catalog {
	catalog := make(Catalog)

	for _, event := range history {
		switch e := event.(type) {
		case core.ProductAdded:
			if _, known := catalog[catalogKey(e.ProductID)]; !known {
				catalog[catalogKey(e.ProductID)] = 0
			}

		case core.RestockOrdered:
			catalog[catalogKey(e.ProductID)] += e.Quantity
		}
	}

	return catalog
}

func catalogKey(productID string) string {
	if productID == "" {
		return defaultProductID
	}

	return productID
}

// BuildEventFilter creates the filter for querying all events which are relevant for the catalog.
func BuildEventFilter() eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.ProductAddedEventType,
			core.RestockOrderedEventType,
		).
		Finalize()
}
