package addproduct

import (
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
)

// CommandType is the type identifier of Command.
const CommandType = "AddProduct"

// Command represents the intent to add a product to the catalog.
type Command struct {
	ProductID core.ProductIDString
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return CommandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(productID string) Command {
	return Command{ProductID: productID}
}
