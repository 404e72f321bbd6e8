// Package definecapacity implements the Define Capacity use case.
//
// The capacity is what the restock saga refills a product to. Each definition replaces the previous one.
package definecapacity
