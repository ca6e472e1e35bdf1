// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Queue is the port interface for publishing domain events. Delivery is
// best effort; consumers live outside this service.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Drain flushes pending publishes before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for NATS subjects used by ProposalForge.
const (
	SubjectProposalCreated = "proposals.created"
	SubjectProposalUpdated = "proposals.updated"
	SubjectUnitReserved    = "units.reserved"
)

// StreamSubjects is the subject filter of the PROPOSALFORGE stream.
var StreamSubjects = []string{"proposals.>", "units.>"}
