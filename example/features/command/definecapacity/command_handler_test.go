package definecapacity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/features/command/definecapacity"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/shell"
)

func Test_CommandHandler_Handle_AppendsEveryCapacity(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewEventStore()
	fakeClock := time.Unix(0, 0).UTC()
	handler, err := definecapacity.NewCommandHandler(store, definecapacity.WithClock(core.FixedClock(fakeClock)))
	require.NoError(t, err)

	// act
	_, err = handler.Handle(ctx, definecapacity.BuildCommand("lasagne", 100))
	require.NoError(t, err)
	emitted, err := handler.Handle(ctx, definecapacity.BuildCommand("lasagne", 380))

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.DomainEvents{core.BuildCapacityDefined("lasagne", 380, fakeClock)}, emitted)

	history, err := shell.DomainEventsFrom(store.All())
	require.NoError(t, err)
	assert.Equal(t, core.DomainEvents{
		core.BuildCapacityDefined("lasagne", 100, fakeClock),
		core.BuildCapacityDefined("lasagne", 380, fakeClock),
	}, history)
}

func Test_CommandHandler_Handle_AppendFails(t *testing.T) {
	appendErr := errors.New("disk full")
	handler, err := definecapacity.NewCommandHandler(rejectingEventStore{err: appendErr})
	require.NoError(t, err)

	emitted, err := handler.Handle(context.Background(), definecapacity.BuildCommand("lasagne", 1))

	assert.ErrorIs(t, err, appendErr)
	assert.Nil(t, emitted)
}

type rejectingEventStore struct {
	err error
}

func (s rejectingEventStore) Append(_ context.Context, _ eventstore.StorableEvent, _ ...eventstore.StorableEvent) error {
	return s.err
}
