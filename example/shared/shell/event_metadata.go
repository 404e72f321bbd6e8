package shell

import (
	"context"
	"errors"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
)

// ErrMappingToEventMetadataFailed is returned when metadata conversion fails.
var ErrMappingToEventMetadataFailed = errors.New("mapping to event metadata failed")

// MessageID represents a unique message identifier.
type MessageID = string

// CausationID represents the ID of the message that caused this event.
type CausationID = string

// CorrelationID represents the ID correlating related events.
type CorrelationID = string

// EventMetadata contains event tracking information.
type EventMetadata struct {
	MessageID     MessageID
	CausationID   CausationID
	CorrelationID CorrelationID
}

// BuildEventMetadata creates EventMetadata from UUID values.
func BuildEventMetadata(messageID uuid.UUID, causationID uuid.UUID, correlationID uuid.UUID) EventMetadata {
	return EventMetadata{
		MessageID:     messageID.String(),
		CausationID:   causationID.String(),
		CorrelationID: correlationID.String(),
	}
}

// BuildInitialEventMetadata creates EventMetadata for the first message of a workflow,
// where the message is its own cause and correlation.
func BuildInitialEventMetadata() EventMetadata {
	uid := uuid.New()

	return BuildEventMetadata(uid, uid, uid)
}

// CausedBy creates EventMetadata for a message triggered by the message described by cause.
func CausedBy(cause EventMetadata) EventMetadata {
	return EventMetadata{
		MessageID:     uuid.NewString(),
		CausationID:   cause.MessageID,
		CorrelationID: cause.CorrelationID,
	}
}

// WithNewMessageID returns a copy with a fresh MessageID.
func (m EventMetadata) WithNewMessageID() EventMetadata {
	m.MessageID = uuid.NewString()

	return m
}

// EventMetadataFrom extracts EventMetadata from a StorableEvent.
func EventMetadataFrom(storableEvent eventstore.StorableEvent) (EventMetadata, error) {
	metadata := new(EventMetadata)
	err := jsoniter.ConfigFastest.Unmarshal(storableEvent.MetadataJSON, metadata)
	if err != nil {
		return EventMetadata{}, errors.Join(ErrMappingToEventMetadataFailed, err)
	}

	return *metadata, nil
}

type causationKey struct{}

// ContextWithCausation marks ctx so that events appended while handling it are caused by the given message.
func ContextWithCausation(ctx context.Context, cause EventMetadata) context.Context {
	return context.WithValue(ctx, causationKey{}, cause)
}

// EventMetadataFor returns the metadata for events appended in ctx:
// caused by the message stored with ContextWithCausation, or the start of a new workflow.
func EventMetadataFor(ctx context.Context) EventMetadata {
	if cause, ok := ctx.Value(causationKey{}).(EventMetadata); ok {
		return CausedBy(cause)
	}

	return BuildInitialEventMetadata()
}
