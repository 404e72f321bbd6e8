package definecapacity

import (
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
)

// CommandType is the type identifier of Command.
const CommandType = "DefineCapacity"

// Command represents the intent to set the storage capacity of a product.
type Command struct {
	ProductID core.ProductIDString
	Capacity  core.QuantityInt
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return CommandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(productID string, capacity int) Command {
	return Command{
		ProductID: productID,
		Capacity:  capacity,
	}
}
