package addproduct

import (
	"time"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
)

// state represents the current state projected from the event history.
type state struct {
	productAlreadyAdded bool
}

// Decide implements the business logic to determine whether a product should be added.
//
// Business Rules:
//
//	GIVEN: A product with ProductID
//	WHEN: AddProduct command is received
//	THEN: ProductAdded event is generated
//	IDEMPOTENCY: If the product was already added, no event is generated (no-op)
func Decide(history core.DomainEvents, command Command, now time.Time) core.DomainEvents {
	s := project(history, command.ProductID)

	if s.productAlreadyAdded {
		return core.DomainEvents{}
	}

	return core.DomainEvents{core.BuildProductAdded(command.ProductID, now)}
}

func project(history core.DomainEvents, productID string) state {
	s := state{}

	for _, event := range history {
		if e, ok := event.(core.ProductAdded); ok && e.ProductID == productID {
			s.productAlreadyAdded = true
		}
	}

	return s
}

// BuildEventFilter creates the filter for querying whether the product was added before.
func BuildEventFilter(productID string) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.ProductAddedEventType).
		AndAnyPredicateOf(eventstore.P("ProductID", productID)).
		Finalize()
}
