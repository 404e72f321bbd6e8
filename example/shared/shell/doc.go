// Package shell provides conversion functions between domain events and storable events
// for the example: Restocking products in a small warehouse.
//
// This package implements the "imperative shell" pattern, handling the
// translation between the functional core (domain events) and the external
// storage layer (storable events). It manages event serialization with jsoniter,
// event metadata with message, causation and correlation ids, and the log
// vocabulary shared by all handlers.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell
