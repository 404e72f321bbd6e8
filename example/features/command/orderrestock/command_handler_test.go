package orderrestock_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/features/command/orderrestock"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/shell"
)

var fakeNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func Test_CommandHandler_Handle_AppendsAcceptedRestock(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewEventStore()
	handler := createHandler(t, store)

	// act
	emitted, err := handler.Handle(ctx, orderrestock.BuildCommand("lasagne", 100))

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.DomainEvents{core.BuildRestockOrdered("lasagne", 100, fakeNow)}, emitted)

	stored := store.All()
	require.Len(t, stored, 1)
	assert.Equal(t, core.RestockOrderedEventType, stored[0].EventType)
	assert.Equal(t, fakeNow, stored[0].OccurredAt)
	assert.JSONEq(t, `{"ProductID": "lasagne", "Quantity": 100, "RecordedAt": "2024-03-01T10:00:00Z"}`, string(stored[0].PayloadJSON))
}

func Test_CommandHandler_Handle_SuppressesAtThreshold(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewEventStore()
	handler := createHandler(t, store)
	givenHandled(t, handler, orderrestock.BuildCommand("", 100))
	givenHandled(t, handler, orderrestock.BuildCommand("", 50))

	// act
	emitted, err := handler.Handle(ctx, orderrestock.BuildCommand("", 50))

	// assert
	require.NoError(t, err)
	assert.Empty(t, emitted)
	assert.Len(t, store.All(), 1, "the second command was already suppressed")
}

func Test_CommandHandler_Handle_BoundaryFromStoredHistory(t *testing.T) {
	ctx := context.Background()
	store := memoryengine.NewEventStore()
	handler := createHandler(t, store)
	givenHandled(t, handler, orderrestock.BuildCommand("", 99))

	accepted, err := handler.Handle(ctx, orderrestock.BuildCommand("", 1))
	require.NoError(t, err)
	suppressed, err := handler.Handle(ctx, orderrestock.BuildCommand("", 1))
	require.NoError(t, err)

	assert.Len(t, accepted, 1)
	assert.Empty(t, suppressed)
	assert.Len(t, store.All(), 2)
}

func Test_CommandHandler_Handle_ScopesHistoryByProduct(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewEventStore()
	handler := createHandler(t, store)
	givenHandled(t, handler, orderrestock.BuildCommand("lasagne", 100))

	// act
	lasagne, err := handler.Handle(ctx, orderrestock.BuildCommand("lasagne", 10))
	require.NoError(t, err)
	broccoli, err := handler.Handle(ctx, orderrestock.BuildCommand("broccoli", 10))
	require.NoError(t, err)
	unnamed, err := handler.Handle(ctx, orderrestock.BuildCommand("", 10))
	require.NoError(t, err)

	// assert
	assert.Empty(t, lasagne)
	assert.Len(t, broccoli, 1)
	assert.Empty(t, unnamed, "an empty product id sees the restocks of all products")
}

func Test_CommandHandler_Handle_ChainsCausation(t *testing.T) {
	store := memoryengine.NewEventStore()
	handler := createHandler(t, store)
	cause := shell.BuildInitialEventMetadata()

	_, err := handler.Handle(shell.ContextWithCausation(context.Background(), cause), orderrestock.BuildCommand("lasagne", 1))
	require.NoError(t, err)

	stored := store.All()
	require.Len(t, stored, 1)
	metadata, err := shell.EventMetadataFrom(stored[0])
	require.NoError(t, err)
	assert.Equal(t, cause.MessageID, metadata.CausationID)
	assert.Equal(t, cause.CorrelationID, metadata.CorrelationID)
}

func Test_CommandHandler_Handle_LogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	handler, err := orderrestock.NewCommandHandler(
		memoryengine.NewEventStore(),
		orderrestock.WithClock(core.FixedClock(fakeNow)),
		orderrestock.WithLogger(logger),
	)
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), orderrestock.BuildCommand("lasagne", 1))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), shell.LogMsgCommandStarted)
	assert.Contains(t, buf.String(), shell.LogMsgCommandCompleted)
	assert.Contains(t, buf.String(), "business_outcome=success")
}

func Test_CommandHandler_Handle_StoreFailures(t *testing.T) {
	queryErr := errors.New("query broke")
	appendErr := errors.New("append broke")

	tests := []struct {
		name     string
		store    failingEventStore
		expected error
	}{
		{"query fails", failingEventStore{queryErr: queryErr}, queryErr},
		{"append fails", failingEventStore{appendErr: appendErr}, appendErr},
		{"stored payload is corrupt", failingEventStore{history: givenCorruptHistory(t)}, shell.ErrMappingToDomainEventFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := createHandler(t, tc.store)

			emitted, err := handler.Handle(context.Background(), orderrestock.BuildCommand("lasagne", 1))

			assert.ErrorIs(t, err, tc.expected)
			assert.Nil(t, emitted)
		})
	}
}

func Test_NewCommandHandler_RejectsNilEventStore(t *testing.T) {
	_, err := orderrestock.NewCommandHandler(nil)

	assert.ErrorIs(t, err, shell.ErrNilEventStore)
}

func createHandler(t *testing.T, store orderrestock.EventStore) orderrestock.CommandHandler {
	t.Helper()

	handler, err := orderrestock.NewCommandHandler(store, orderrestock.WithClock(core.FixedClock(fakeNow)))
	require.NoError(t, err)

	return handler
}

func givenHandled(t *testing.T, handler orderrestock.CommandHandler, command orderrestock.Command) {
	t.Helper()

	_, err := handler.Handle(context.Background(), command)
	require.NoError(t, err)
}

func givenCorruptHistory(t *testing.T) eventstore.StorableEvents {
	t.Helper()

	event, err := eventstore.BuildStorableEventWithEmptyMetadata(core.RestockOrderedEventType, fakeNow, []byte(`{"Quantity": "lots"}`))
	require.NoError(t, err)

	return eventstore.StorableEvents{event}
}

type failingEventStore struct {
	history   eventstore.StorableEvents
	queryErr  error
	appendErr error
}

func (s failingEventStore) Query(_ context.Context, _ eventstore.Filter) (eventstore.StorableEvents, error) {
	return s.history, s.queryErr
}

func (s failingEventStore) Append(_ context.Context, _ eventstore.StorableEvent, _ ...eventstore.StorableEvent) error {
	return s.appendErr
}
