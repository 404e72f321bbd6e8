package addproduct_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/restock-eventsourcing-go/example/features/command/addproduct"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
)

func Test_Decide_Success_WhenProductIsNew(t *testing.T) {
	now := time.Now()
	history := core.DomainEvents{core.BuildProductAdded("broccoli", now.Add(-time.Hour))}

	emitted := addproduct.Decide(history, addproduct.BuildCommand("lasagne"), now)

	assert.Equal(t, core.DomainEvents{core.BuildProductAdded("lasagne", now)}, emitted)
}

func Test_Decide_Idempotent_WhenProductAlreadyAdded(t *testing.T) {
	now := time.Now()
	history := core.DomainEvents{
		core.BuildProductAdded("lasagne", now.Add(-time.Hour)),
		core.BuildRestockOrdered("lasagne", 50, now.Add(-time.Minute)),
	}

	emitted := addproduct.Decide(history, addproduct.BuildCommand("lasagne"), now)

	assert.Empty(t, emitted)
}
