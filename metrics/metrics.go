package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_events_ingested_total",
		Help: "Total number of events appended to the event store, labelled by resource type.",
	}, []string{"resource_type"})

	DuplicateEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_events_duplicate_total",
		Help: "Total number of redelivered events discarded by deduplication.",
	})

	MessagesAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_messages_abandoned_total",
		Help: "Total number of queue messages returned for redelivery after a failure.",
	})

	ProjectionUpserts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_projection_upserts_total",
		Help: "Total number of projection upserts, labelled by transaction type.",
	}, []string{"transaction_type"})

	OrphanRefundsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_orphan_refunds_resolved_total",
		Help: "Total number of refund projections linked to their parent after the fact.",
	})

	ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_message_processing_duration_seconds",
		Help:    "End-to-end queue message processing latency.",
		Buckets: prometheus.DefBuckets,
	})
)
