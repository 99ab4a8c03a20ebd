// Package adapter defines the notification boundary for target file
// mutations.
//
// After a Write or Clear request succeeds, the server publishes a
// MutationEvent through the configured adapter. Delivery is best effort and
// never changes the reply sent to the client.
package adapter

import (
	"context"
	"time"
)

// EventTypeFileMutated is the event_type of every MutationEvent.
const EventTypeFileMutated = "file_mutated"

// Operation names carried in MutationEvent.Operation.
const (
	OperationWrite = "write"
	OperationClear = "clear"
)

// MutationEvent is the payload published when the target file changes.
type MutationEvent struct {
	EventType    string `json:"event_type"` // always "file_mutated"
	Operation    string `json:"operation"`  // write or clear
	TargetPath   string `json:"target_path"`
	ConnID       string `json:"conn_id"`
	BytesWritten int    `json:"bytes_written"`
	Timestamp    string `json:"timestamp"` // RFC 3339, UTC
}

// NewMutationEvent builds an event stamped with the current time.
func NewMutationEvent(operation, targetPath, connID string, bytesWritten int) *MutationEvent {
	return &MutationEvent{
		EventType:    EventTypeFileMutated,
		Operation:    operation,
		TargetPath:   targetPath,
		ConnID:       connID,
		BytesWritten: bytesWritten,
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Adapter publishes mutation events to a downstream system.
// Implementations must be safe for concurrent use by connection goroutines.
type Adapter interface {
	// Publish sends a mutation event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *MutationEvent) error

	// Close releases adapter resources.
	Close() error
}

// Backoff returns the delay before retry attempt i (i >= 1):
// 500ms, 1s, 2s, ...
func Backoff(i int) time.Duration {
	if i < 1 {
		return 0
	}
	return time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
}
