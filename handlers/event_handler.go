package handlers

import (
	"context"

	"example.com/backstage/services/ledger/domain"
	"example.com/backstage/services/ledger/eventstore"
	"example.com/backstage/services/ledger/locks"
	"example.com/backstage/services/ledger/metrics"
	"example.com/backstage/services/ledger/projections"
)

// EventHandler runs the ingestion pipeline for one event: append to the
// event store, then re-derive and upsert the projection. The whole cycle
// holds the per-resource lock so two workers handling events for the same
// resource cannot interleave their read-fold-write cycles; events for
// different resources proceed in parallel.
type EventHandler struct {
	events    eventstore.EventStore
	projector *projections.TransactionProjector
	keyLocks  *locks.KeyedMutex
}

// NewEventHandler creates a new event handler
func NewEventHandler(events eventstore.EventStore, projector *projections.TransactionProjector, keyLocks *locks.KeyedMutex) *EventHandler {
	return &EventHandler{
		events:    events,
		projector: projector,
		keyLocks:  keyLocks,
	}
}

// HandleEvent ingests one event end to end. A duplicate append is a
// successful no-op: the event was already stored and projected, so the
// message can be acknowledged. A failure after the append but before the
// upsert leaves the projection stale, never inconsistent; the next event or
// reconciliation pass for the resource re-derives from the stored history.
func (h *EventHandler) HandleEvent(ctx context.Context, event *domain.Event) error {
	unlock := h.keyLocks.Lock(event.ResourceExternalID)
	defer unlock()

	outcome, err := h.events.AppendEvent(ctx, event)
	if err != nil {
		return err
	}
	if outcome == eventstore.Duplicate {
		metrics.DuplicateEvents.Inc()
		return nil
	}

	metrics.EventsIngested.WithLabelValues(string(event.ResourceType)).Inc()

	return h.projector.Refresh(ctx, event.ResourceExternalID, event.ResourceType)
}
