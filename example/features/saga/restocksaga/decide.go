package restocksaga

import (
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/features/command/orderrestock"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
)

// state represents the capacity projected from the product's CapacityDefined history.
type state struct {
	capacity core.QuantityInt
}

// Decide reacts to a ThresholdReached event with the commands that refill the product to its capacity.
//
// Business Rules:
//
//	GIVEN: the last CapacityDefined of the product (capacity 0 when there is none)
//	WHEN: ThresholdReached with the remaining quantity is received
//	THEN: one RestockOrder for capacity minus remaining quantity is generated
//
// The difference is not validated, a remaining quantity above the capacity yields a negative order.
func Decide(history core.DomainEvents, event core.ThresholdReached) []orderrestock.Command {
	s := project(history)

	return []orderrestock.Command{
		orderrestock.BuildCommand(event.ProductID, s.capacity-event.Quantity),
	}
}

func project(history core.DomainEvents) state {
	s := state{}

	for _, event := range history {
		switch e := event.(type) {
		case core.CapacityDefined:
			s.capacity = e.Capacity
		}
	}

	return s
}

// BuildEventFilter creates the filter for querying the capacity history of the product.
func BuildEventFilter(productID string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.CapacityDefinedEventType).
		AndAnyPredicateOf(eventstore.P("ProductID", productID)).
		Finalize()
}
