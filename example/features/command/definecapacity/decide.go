package definecapacity

import (
	"time"

	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
)

// Decide always accepts: a new capacity replaces the previous one, so no history is needed.
func Decide(command Command, now time.Time) core.DomainEvents {
	return core.DomainEvents{core.BuildCapacityDefined(command.ProductID, command.Capacity, now)}
}
