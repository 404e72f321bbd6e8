// Package restocksaga implements the process manager that turns a reached stock threshold
// into a restock order.
//
// The saga reads the product's capacity from its CapacityDefined history and orders the
// difference between capacity and the remaining quantity through a CommandSender, which
// in production is the orderrestock.CommandHandler.
package restocksaga
