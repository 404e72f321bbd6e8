package orderrestock

import (
	"time"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
)

// restockThreshold is the quantity from which further restock orders are suppressed.
const restockThreshold = 100

// State is the Restocker state projected from the history. Only Project builds it.
type State struct {
	quantity core.QuantityInt
}

// Quantity returns the sum of all restock quantities in the projected history.
func (s State) Quantity() core.QuantityInt {
	return s.quantity
}

// Project folds the history into the Restocker State.
// Events other than RestockOrdered are skipped, so new event variants don't break the projection.
func Project(history core.DomainEvents) State {
	s := State{}

	for _, event := range history {
		switch e := event.(type) {
		case core.RestockOrdered:
			s.quantity += e.Quantity
		}
	}

	return s
}

// Decide implements the Restocker business rule.
// This is a pure function with no side effects: recordedAt comes in from the caller.
//
// Business Rules:
//
//	GIVEN: the summed restock quantity of the history
//	WHEN: RestockOrder command is received
//	THEN: RestockOrdered with the command's quantity is generated if the sum is below 100
//	IDEMPOTENCY: at 100 or more, no event is generated (no-op)
//
// The quantity is passed through as is; zero and negative values are not rejected.
func Decide(s State, command Command, now time.Time) core.DomainEvents {
	if s.quantity >= restockThreshold {
		return core.DomainEvents{}
	}

	return core.DomainEvents{
		core.BuildRestockOrdered(command.ProductID, command.Quantity, now),
	}
}

// BuildEventFilter creates the filter for querying the restock history of the product.
// An empty productID is dropped by the filter sanitizing, so the history then spans all restock events.
func BuildEventFilter(productID string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.RestockOrderedEventType).
		AndAnyPredicateOf(eventstore.P("ProductID", productID)).
		Finalize()
}
