package core

import (
	"time"
)

// DomainEvents is a slice of DomainEvent instances.
type DomainEvents = []DomainEvent

// DomainEvent represents a fact that has happened in the domain.
type DomainEvent interface {
	// IsEventType returns the stable string identifier for this event type.
	IsEventType() string

	// HasRecordedAt returns when this event was recorded.
	HasRecordedAt() time.Time
}
