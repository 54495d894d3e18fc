package eventstore

import (
	"context"

	"example.com/backstage/services/ledger/domain"
)

// AppendOutcome reports what an append did.
type AppendOutcome int

const (
	// Stored means the event was new and has been persisted.
	Stored AppendOutcome = iota
	// Duplicate means an event with the same resource id and content digest
	// already exists; the append was a no-op.
	Duplicate
)

// EventStore is the interface for the append-only event log
type EventStore interface {
	// AppendEvent persists an event unless an event with the same resource id
	// and content digest is already stored. On success the event's ingestion
	// sequence number is filled in.
	AppendEvent(ctx context.Context, event *domain.Event) (AppendOutcome, error)

	// EventsForResource returns the full stored history of a resource ordered
	// by (occurrence timestamp, ingestion sequence) ascending. This ordering
	// is the only ordering contract derivation relies on.
	EventsForResource(ctx context.Context, resourceExternalID string) ([]domain.Event, error)
}
