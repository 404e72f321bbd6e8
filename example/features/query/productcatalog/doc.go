// Package productcatalog implements the Product Catalog query use case.
//
// The catalog lists every product that was added or restocked together with the summed
// quantity of its restock orders. It is a read-only projection of the event history.
package productcatalog
