package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_BuildStorableEvent_ErrorCases(t *testing.T) {
	validTime := time.Now()
	validPayloadJSON := []byte(`{"ProductID": "lasagne", "Quantity": 50}`)
	validMetadataJSON := []byte(`{"MessageID": "msg-1"}`)

	tests := []struct {
		name         string
		payloadJSON  []byte
		metadataJSON []byte
		expectedErr  error
	}{
		{
			name:         "invalid payload JSON",
			payloadJSON:  []byte(`{"invalid": json}`),
			metadataJSON: validMetadataJSON,
			expectedErr:  ErrInvalidPayloadJSON,
		},
		{
			name:         "invalid metadata JSON",
			payloadJSON:  validPayloadJSON,
			metadataJSON: []byte(`{"invalid": json}`),
			expectedErr:  ErrInvalidMetadataJSON,
		},
		{
			name:         "empty payload JSON",
			payloadJSON:  []byte(``),
			metadataJSON: validMetadataJSON,
			expectedErr:  ErrInvalidPayloadJSON,
		},
		{
			name:         "nil metadata JSON",
			payloadJSON:  validPayloadJSON,
			metadataJSON: nil,
			expectedErr:  ErrInvalidMetadataJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildStorableEvent("restock_ordered", validTime, tt.payloadJSON, tt.metadataJSON)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func Test_BuildStorableEvent_Success(t *testing.T) {
	eventType := "restock_ordered"
	occurredAt := time.Now()
	payloadJSON := []byte(`{"ProductID": "lasagne", "Quantity": 50}`)
	metadataJSON := []byte(`{"CorrelationID": "corr-789"}`)

	storableEvent, err := BuildStorableEvent(eventType, occurredAt, payloadJSON, metadataJSON)
	assert.NoError(t, err)
	assert.Equal(t, eventType, storableEvent.EventType)
	assert.Equal(t, occurredAt, storableEvent.OccurredAt)
	assert.Equal(t, payloadJSON, storableEvent.PayloadJSON)
	assert.Equal(t, metadataJSON, storableEvent.MetadataJSON)
}

func Test_BuildStorableEventWithEmptyMetadata_Success(t *testing.T) {
	payloadJSON := []byte(`{"ProductID": "broccoli"}`)

	storableEvent, err := BuildStorableEventWithEmptyMetadata("add_product", time.Now(), payloadJSON)
	assert.NoError(t, err)
	assert.Equal(t, payloadJSON, storableEvent.PayloadJSON)
	assert.Equal(t, []byte(`{}`), storableEvent.MetadataJSON)
}

func Test_BuildStorableEventWithEmptyMetadata_InvalidPayload(t *testing.T) {
	_, err := BuildStorableEventWithEmptyMetadata("add_product", time.Now(), nil)
	assert.ErrorIs(t, err, ErrInvalidPayloadJSON)
}
