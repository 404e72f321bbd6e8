package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/fileengine"
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/shell"
	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/shell/config"
	"github.com/AntonStoeckl/restock-eventsourcing-go/testutil/observability/testdoubles"
)

var fakeNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func Test_Session_Run_FullWorkflow(t *testing.T) {
	// arrange
	store := memoryengine.NewEventStore()
	out := new(bytes.Buffer)
	session := givenSession(t, store, out)

	input := strings.Join([]string{
		"add lasagne",
		"add broccoli",
		"capacity lasagne 100",
		"restock lasagne 50",
		"catalog",
		"exit",
		"add never-reached",
	}, "\n")

	// act
	err := session.Run(context.Background(), strings.NewReader(input))

	// assert
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "Loaded 0 events from storage")
	assert.Contains(t, output, "Product 'lasagne' added")
	assert.Contains(t, output, "Product 'broccoli' added")
	assert.Contains(t, output, "Capacity of 'lasagne' set to 100")
	assert.Contains(t, output, "Restocked 'lasagne' with 50 units")
	assert.Contains(t, output, "Product Catalog:")
	assert.Contains(t, output, `"broccoli": 0`)
	assert.Contains(t, output, `"lasagne": 50`)
	assert.Contains(t, output, "Goodbye!")
	assert.NotContains(t, output, "never-reached")
	assert.Len(t, store.All(), 4)
}

func Test_Session_Run_ReportsLoadedEvents(t *testing.T) {
	event, err := shell.StorableEventFrom(core.BuildProductAdded("lasagne", fakeNow), shell.BuildInitialEventMetadata())
	require.NoError(t, err)

	store := memoryengine.NewEventStore(memoryengine.WithInitialEvents(event))
	out := new(bytes.Buffer)

	require.NoError(t, givenSession(t, store, out).Run(context.Background(), strings.NewReader("")))

	assert.Contains(t, out.String(), "Loaded 1 events from storage")
}

func Test_Session_Execute(t *testing.T) {
	testCases := []struct {
		name     string
		lines    []string
		expected string
	}{
		{name: "add without product", lines: []string{"add"}, expected: "Usage: add <product_id>"},
		{name: "restock without quantity", lines: []string{"restock lasagne"}, expected: "Usage: restock <product_id> <quantity>"},
		{name: "capacity without arguments", lines: []string{"capacity"}, expected: "Usage: capacity <product_id> <capacity>"},
		{name: "threshold without quantity", lines: []string{"threshold lasagne"}, expected: "Usage: threshold <product_id> <quantity>"},
		{name: "restock with text quantity", lines: []string{"restock lasagne many"}, expected: "Quantity must be a number"},
		{name: "unknown command", lines: []string{"sell lasagne"}, expected: "Unknown command: sell"},
		{name: "commands are case insensitive", lines: []string{"ADD lasagne"}, expected: "Product 'lasagne' added"},
		{name: "add twice", lines: []string{"add lasagne", "add lasagne"}, expected: "Product 'lasagne' already added"},
		{name: "help", lines: []string{"help"}, expected: "catalog                           - Query product catalog"},
		{name: "history when empty", lines: []string{"history"}, expected: "No events stored"},
		{
			name:     "restock suppressed at threshold",
			lines:    []string{"restock lasagne 100", "restock lasagne 1"},
			expected: "Restock of 'lasagne' suppressed, enough units are ordered already",
		},
		{
			name:     "threshold triggers saga",
			lines:    []string{"capacity lasagne 380", "threshold lasagne 35"},
			expected: "Threshold of 'lasagne' reached with 35 units left\nRestocked 'lasagne' with 345 units",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			out := new(bytes.Buffer)
			session := givenSession(t, memoryengine.NewEventStore(), out)

			// act
			for _, line := range tc.lines {
				require.True(t, session.Execute(context.Background(), line))
			}

			// assert
			assert.Contains(t, out.String(), tc.expected)
		})
	}
}

func Test_Session_Run_ReportsEventsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	store, err := fileengine.Open(path)
	require.NoError(t, err)

	out := new(bytes.Buffer)
	session, err := NewSession(store, out)
	require.NoError(t, err)

	require.NoError(t, session.Run(context.Background(), strings.NewReader("")))

	assert.Contains(t, out.String(), "Loaded 0 events from "+path)
}

func Test_Session_Execute_TextQuantityHasNoErrorPrefix(t *testing.T) {
	out := new(bytes.Buffer)
	session := givenSession(t, memoryengine.NewEventStore(), out)

	session.Execute(context.Background(), "capacity lasagne lots")

	assert.Equal(t, "Quantity must be a number\n", out.String())
}

func Test_Session_Execute_Metrics(t *testing.T) {
	t.Run("disabled without a metrics source", func(t *testing.T) {
		out := new(bytes.Buffer)
		session := givenSession(t, memoryengine.NewEventStore(), out)

		session.Execute(context.Background(), "metrics")

		assert.Equal(t, "Error: metrics are not collected in this session\n", out.String())
	})

	t.Run("shows the handler metrics", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		telemetry, err := config.SetupTelemetry(ctx, config.Config{ServiceName: "restockctl-test"}, new(bytes.Buffer))
		require.NoError(t, err)
		defer func() { _ = telemetry.Shutdown(ctx) }()

		out := new(bytes.Buffer)
		session, err := NewSession(
			memoryengine.NewEventStore(),
			out,
			WithClock(core.FixedClock(fakeNow)),
			WithMetrics(telemetry.Metrics),
			WithTracing(telemetry.Tracing),
			WithMetricsSource(telemetry),
		)
		require.NoError(t, err)

		session.Execute(ctx, "add lasagne")
		out.Reset()

		// act
		session.Execute(ctx, "metrics")

		// assert
		assert.Contains(t, out.String(), "commandhandler_handle_calls_total{command_type=AddProduct,status=success} 1")
	})
}

func Test_Session_Execute_Threshold_TracesSagaAndCommand(t *testing.T) {
	// arrange
	tracing := testdoubles.NewTracingCollectorSpy(true)
	logger := testdoubles.NewContextualLoggerSpy(true)
	session, err := NewSession(
		memoryengine.NewEventStore(),
		new(bytes.Buffer),
		WithClock(core.FixedClock(fakeNow)),
		WithTracing(tracing),
		WithContextualLogger(logger),
	)
	require.NoError(t, err)

	// act
	session.Execute(context.Background(), "threshold lasagne 10")

	// assert
	assert.True(t, tracing.HasSpanRecordForName(shell.SpanNameEventHandle).WithStatus(shell.StatusSuccess).Assert())
	assert.True(t, tracing.HasSpanRecordForName(shell.SpanNameCommandHandle).Assert())
	assert.True(t, logger.HasRecord("info", shell.LogMsgEventHandlerCompleted))
}

func Test_Session_Execute_History(t *testing.T) {
	out := new(bytes.Buffer)
	session := givenSession(t, memoryengine.NewEventStore(), out)

	session.Execute(context.Background(), "add lasagne")
	session.Execute(context.Background(), "restock lasagne 5")
	out.Reset()

	session.Execute(context.Background(), "history")

	assert.Equal(t,
		"1. 2024-03-01T10:00:00Z add_product {\"ProductID\":\"lasagne\",\"RecordedAt\":\"2024-03-01T10:00:00Z\"}\n"+
			"2. 2024-03-01T10:00:00Z restock_ordered {\"ProductID\":\"lasagne\",\"Quantity\":5,\"RecordedAt\":\"2024-03-01T10:00:00Z\"}\n",
		out.String(),
	)
}

func Test_Session_Execute_ClearRemovesAllEvents(t *testing.T) {
	store := memoryengine.NewEventStore()
	out := new(bytes.Buffer)
	session := givenSession(t, store, out)

	session.Execute(context.Background(), "add lasagne")
	session.Execute(context.Background(), "clear")
	session.Execute(context.Background(), "catalog")

	assert.Contains(t, out.String(), "All events cleared!")
	assert.Contains(t, out.String(), "Product Catalog:\n{}")
	assert.Empty(t, store.All())
}

func Test_Session_Execute_StoreFailureKeepsSessionAlive(t *testing.T) {
	out := new(bytes.Buffer)
	session, err := NewSession(brokenEventStore{}, out)
	require.NoError(t, err)

	assert.True(t, session.Execute(context.Background(), "add lasagne"))
	assert.Contains(t, out.String(), "Error: store unavailable")
}

func Test_NewSession_RejectsNilStore(t *testing.T) {
	_, err := NewSession(nil, new(bytes.Buffer))

	assert.ErrorIs(t, err, shell.ErrNilEventStore)
}

func givenSession(t *testing.T, store *memoryengine.EventStore, out *bytes.Buffer) *Session {
	t.Helper()

	session, err := NewSession(store, out, WithClock(core.FixedClock(fakeNow)))
	require.NoError(t, err)

	return session
}

var errStoreUnavailable = errors.New("store unavailable")

type brokenEventStore struct{}

func (brokenEventStore) Query(context.Context, eventstore.Filter) (eventstore.StorableEvents, error) {
	return nil, errStoreUnavailable
}

func (brokenEventStore) Append(context.Context, eventstore.StorableEvent, ...eventstore.StorableEvent) error {
	return errStoreUnavailable
}

func (brokenEventStore) Clear(context.Context) error {
	return errStoreUnavailable
}
