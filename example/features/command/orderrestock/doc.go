// Package orderrestock implements the Order Restock use case, the Restocker aggregate.
//
// A restock order is accepted while the summed quantity of all earlier restock orders
// for the product is below 100; from 100 on, further orders are suppressed and nothing
// is emitted. The state is rebuilt from the event history on every command.
//
// It follows the Query-Decide-Append pattern with proper separation between
// infrastructure concerns (CommandHandler) and pure business logic (Project and Decide).
package orderrestock
