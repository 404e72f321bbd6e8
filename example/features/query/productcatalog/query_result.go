package productcatalog

import (
	"maps"
	"slices"

	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
)

// Catalog maps each known product to the summed quantity of its restock orders.
type Catalog map[core.ProductIDString]core.QuantityInt

// ProductIDs returns the products of the catalog in lexical order.
func (c Catalog) ProductIDs() []core.ProductIDString {
	return slices.Sorted(maps.Keys(c))
}
