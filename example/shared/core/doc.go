// Package core contains the domain events and contracts for the example:
// Restocking products in a small warehouse.
//
// The events are facts, named after what happened: RestockOrdered, ProductAdded,
// CapacityDefined, ThresholdReached. Each implements the DomainEvent interface with
// IsEventType() and HasRecordedAt() so the shell can map it to and from storage.
//
// Nothing in this package reads the wall clock on its own. Timestamps are passed into
// the Build* constructors, usually from a Clock injected into a command handler.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
