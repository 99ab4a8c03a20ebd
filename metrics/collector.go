// Package metrics provides in-process counters for the filesock server.
//
// The Collector is a leaf package with no internal dependencies. It is shared
// by all connection goroutines and read once at shutdown via Snapshot.
package metrics

import (
	"maps"
	"sync"
)

// Snapshot is an immutable point-in-time view of all counters.
// Safe to read concurrently after creation.
type Snapshot struct {
	// Connections
	ConnectionsAccepted int64
	ConnectionsDropped  int64

	// Requests
	RequestsByType map[string]int64
	RepliesSent    int64
	DecodeErrors   int64

	// Target file
	MutationSuccess int64
	MutationFailure int64
	BytesAppended   int64

	// Notifications
	NotifySuccess int64
	NotifyFailure int64

	// Dimensions (informational, set at construction)
	SocketPath string
	TargetPath string
}

// Collector accumulates server counters.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	connectionsAccepted int64
	connectionsDropped  int64

	requestsByType map[string]int64
	repliesSent    int64
	decodeErrors   int64

	mutationSuccess int64
	mutationFailure int64
	bytesAppended   int64

	notifySuccess int64
	notifyFailure int64

	socketPath string
	targetPath string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(socketPath, targetPath string) *Collector {
	return &Collector{
		requestsByType: make(map[string]int64),
		socketPath:     socketPath,
		targetPath:     targetPath,
	}
}

// add must only be called on a non-nil receiver.
func (c *Collector) add(field *int64, n int64) {
	c.mu.Lock()
	*field += n
	c.mu.Unlock()
}

// IncConnectionAccepted records an accepted connection.
func (c *Collector) IncConnectionAccepted() {
	if c == nil {
		return
	}
	c.add(&c.connectionsAccepted, 1)
}

// IncConnectionDropped records a connection closed without a reply because
// the request could not be read.
func (c *Collector) IncConnectionDropped() {
	if c == nil {
		return
	}
	c.add(&c.connectionsDropped, 1)
}

// IncRequest records a decoded request by type name.
func (c *Collector) IncRequest(typeName string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.requestsByType[typeName]++
	c.mu.Unlock()
}

// IncReplySent records a reply frame written to a connection.
func (c *Collector) IncReplySent() {
	if c == nil {
		return
	}
	c.add(&c.repliesSent, 1)
}

// IncDecodeError records a malformed request.
func (c *Collector) IncDecodeError() {
	if c == nil {
		return
	}
	c.add(&c.decodeErrors, 1)
}

// IncMutationSuccess records a successful Append or Clear.
func (c *Collector) IncMutationSuccess() {
	if c == nil {
		return
	}
	c.add(&c.mutationSuccess, 1)
}

// IncMutationFailure records a failed Append or Clear.
func (c *Collector) IncMutationFailure() {
	if c == nil {
		return
	}
	c.add(&c.mutationFailure, 1)
}

// AddBytesAppended records n bytes appended to the target file.
func (c *Collector) AddBytesAppended(n int) {
	if c == nil {
		return
	}
	c.add(&c.bytesAppended, int64(n))
}

// IncNotifySuccess records a delivered mutation notification.
func (c *Collector) IncNotifySuccess() {
	if c == nil {
		return
	}
	c.add(&c.notifySuccess, 1)
}

// IncNotifyFailure records a failed mutation notification.
func (c *Collector) IncNotifyFailure() {
	if c == nil {
		return
	}
	c.add(&c.notifyFailure, 1)
}

// Snapshot returns an immutable copy of all counters.
// Returns a zero Snapshot for a nil receiver.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{RequestsByType: map[string]int64{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		ConnectionsAccepted: c.connectionsAccepted,
		ConnectionsDropped:  c.connectionsDropped,
		RequestsByType:      maps.Clone(c.requestsByType),
		RepliesSent:         c.repliesSent,
		DecodeErrors:        c.decodeErrors,
		MutationSuccess:     c.mutationSuccess,
		MutationFailure:     c.mutationFailure,
		BytesAppended:       c.bytesAppended,
		NotifySuccess:       c.notifySuccess,
		NotifyFailure:       c.notifyFailure,
		SocketPath:          c.socketPath,
		TargetPath:          c.targetPath,
	}
}

// Fields flattens the snapshot for structured logging.
func (s Snapshot) Fields() map[string]any {
	return map[string]any{
		"connections_accepted": s.ConnectionsAccepted,
		"connections_dropped":  s.ConnectionsDropped,
		"requests_by_type":     s.RequestsByType,
		"replies_sent":         s.RepliesSent,
		"decode_errors":        s.DecodeErrors,
		"mutation_success":     s.MutationSuccess,
		"mutation_failure":     s.MutationFailure,
		"bytes_appended":       s.BytesAppended,
		"notify_success":       s.NotifySuccess,
		"notify_failure":       s.NotifyFailure,
	}
}
