package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/restock-eventsourcing-go/example/shared/core"
)

func Test_ToRecordedAt_NormalizesToUTCMicroseconds(t *testing.T) {
	berlin := time.FixedZone("CET", 60*60)
	local := time.Date(2024, 3, 1, 11, 0, 0, 123456789, berlin)

	recordedAt := core.ToRecordedAt(local)

	assert.Equal(t, time.UTC, recordedAt.Location())
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC), recordedAt)
}

func Test_FixedClock_AlwaysReturnsSameTime(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := core.FixedClock(fixed)

	assert.Equal(t, fixed, clock())
	assert.Equal(t, fixed, clock())
}

func Test_Events_CarryTheirTypeAndRecordedAt(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		event        core.DomainEvent
		expectedType string
	}{
		{event: core.BuildRestockOrdered("lasagne", 50, now), expectedType: "restock_ordered"},
		{event: core.BuildProductAdded("lasagne", now), expectedType: "add_product"},
		{event: core.BuildCapacityDefined("lasagne", 100, now), expectedType: "capacity_defined"},
		{event: core.BuildThresholdReached("lasagne", 20, now), expectedType: "threshold_reached"},
	}

	for _, tc := range testCases {
		t.Run(tc.expectedType, func(t *testing.T) {
			assert.Equal(t, tc.expectedType, tc.event.IsEventType())
			assert.Equal(t, now, tc.event.HasRecordedAt())
		})
	}
}
