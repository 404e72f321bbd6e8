package orderrestock

import (
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
)

// CommandType is the type identifier of Command.
const CommandType = "RestockOrder"

// Command represents the intent to restock Quantity units of a product.
// An empty ProductID addresses the single, unnamed product.
type Command struct {
	ProductID core.ProductIDString
	Quantity  core.QuantityInt
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return CommandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(productID string, quantity int) Command {
	return Command{
		ProductID: productID,
		Quantity:  quantity,
	}
}
