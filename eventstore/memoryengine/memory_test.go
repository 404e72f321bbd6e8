package memoryengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/memoryengine"
)

func Test_EventStore_AppendAndQuery_PreservesOrder(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewEventStore()
	first := storableEvent(t, "add_product", `{"ProductID": "first"}`)
	second := storableEvent(t, "add_product", `{"ProductID": "second"}`)
	third := storableEvent(t, "add_product", `{"ProductID": "third"}`)

	// act
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second, third))
	events, err := store.Query(ctx, eventstore.BuildEventFilter().MatchingAnyEvent())

	// assert
	require.NoError(t, err)
	assert.Equal(t, eventstore.StorableEvents{first, second, third}, events)
}

func Test_EventStore_Query_AppliesFilter(t *testing.T) {
	// arrange
	ctx := context.Background()
	lasagne := storableEvent(t, "restock_ordered", `{"ProductID": "lasagne", "Quantity": 50}`)
	broccoli := storableEvent(t, "restock_ordered", `{"ProductID": "broccoli", "Quantity": 20}`)
	added := storableEvent(t, "add_product", `{"ProductID": "lasagne"}`)
	store := memoryengine.NewEventStore(memoryengine.WithInitialEvents(added, lasagne, broccoli))

	filter := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("restock_ordered").
		AndAnyPredicateOf(eventstore.P("ProductID", "lasagne")).
		Finalize()

	// act
	events, err := store.Query(ctx, filter)

	// assert
	require.NoError(t, err)
	assert.Equal(t, eventstore.StorableEvents{lasagne}, events)
}

func Test_EventStore_Query_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := memoryengine.NewEventStore(memoryengine.WithInitialEvents(storableEvent(t, "add_product", `{"ProductID": "a"}`)))

	events1, err := store.Query(ctx, eventstore.BuildEventFilter().MatchingAnyEvent())
	require.NoError(t, err)
	events1[0].EventType = "mutated"

	events2, err := store.Query(ctx, eventstore.BuildEventFilter().MatchingAnyEvent())
	require.NoError(t, err)
	assert.Equal(t, "add_product", events2[0].EventType)
}

func Test_EventStore_Clear_RemovesAllEvents(t *testing.T) {
	ctx := context.Background()
	store := memoryengine.NewEventStore(memoryengine.WithInitialEvents(storableEvent(t, "add_product", `{"ProductID": "a"}`)))

	require.NoError(t, store.Clear(ctx))

	assert.Empty(t, store.All())
}

func Test_EventStore_Query_EmptyStore(t *testing.T) {
	events, err := memoryengine.NewEventStore().Query(context.Background(), eventstore.BuildEventFilter().MatchingAnyEvent())

	require.NoError(t, err)
	assert.Empty(t, events)
}

func storableEvent(t *testing.T, eventType string, payload string) eventstore.StorableEvent {
	t.Helper()

	event, err := eventstore.BuildStorableEventWithEmptyMetadata(eventType, time.Unix(0, 0).UTC(), []byte(payload))
	require.NoError(t, err)

	return event
}
