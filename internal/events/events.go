package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OperationEvent describes one status transition of a queued operation.
// Events exist for operational visibility (logging, metrics forwarders);
// the queue never depends on their delivery.
type OperationEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// OperationID is the operation whose status changed.
	OperationID uuid.UUID `json:"operation_id"`

	// Status is the status the operation transitioned to.
	Status string `json:"status"`

	// Detail carries the failure reason for failed transitions, empty
	// otherwise.
	Detail string `json:"detail,omitempty"`

	// At is when the transition happened.
	At time.Time `json:"at"`
}

// NewOperationEvent creates an OperationEvent for the given transition.
func NewOperationEvent(operationID uuid.UUID, status, detail string) *OperationEvent {
	return &OperationEvent{
		ID:          uuid.New(),
		OperationID: operationID,
		Status:      status,
		Detail:      detail,
		At:          time.Now(),
	}
}

// Handler defines an interface for components that can handle events.
// Version: 1.0
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *OperationEvent) error
}

// Emitter defines an interface for components that can emit events.
// This allows the scheduler to publish transitions without direct
// knowledge of handlers.
// Version: 1.0
type Emitter interface {
	// Emit publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	Emit(ctx context.Context, event *OperationEvent) error
}
