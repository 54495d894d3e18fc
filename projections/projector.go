package projections

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ledger/cache"
	"example.com/backstage/services/ledger/domain"
	"example.com/backstage/services/ledger/eventstore"
	"example.com/backstage/services/ledger/metrics"
	"example.com/backstage/services/ledger/models"
)

// TransactionProjector turns a resource's stored event history into its
// materialized transaction row. It never applies deltas: every refresh
// re-reads the full history, re-derives the state and replaces the row, so a
// refresh after a crash or out-of-order delivery converges to the same result.
type TransactionProjector struct {
	events eventstore.EventStore
	store  TransactionStore
	cache  cache.CacheClient
}

// NewTransactionProjector creates a new transaction projector
func NewTransactionProjector(events eventstore.EventStore, store TransactionStore, cacheClient cache.CacheClient) *TransactionProjector {
	return &TransactionProjector{
		events: events,
		store:  store,
		cache:  cacheClient,
	}
}

// Refresh re-derives and upserts the projection for one resource. Callers
// must hold the per-resource lock for the external id so concurrent refreshes
// cannot overwrite each other with a stale snapshot.
func (p *TransactionProjector) Refresh(ctx context.Context, resourceExternalID string, resourceType domain.ResourceType) error {
	history, err := p.events.EventsForResource(ctx, resourceExternalID)
	if err != nil {
		return fmt.Errorf("failed to load event history: %w", err)
	}
	if len(history) == 0 {
		return nil
	}

	projection := domain.DeriveProjection(resourceExternalID, resourceType, history)

	transaction := &models.Transaction{
		ExternalID:          projection.ResourceExternalID,
		TransactionType:     transactionTypeFor(resourceType),
		GatewayAccountID:    projection.GatewayAccountID,
		Amount:              projection.Amount,
		State:               string(projection.State),
		Reference:           projection.Reference,
		Description:         projection.Description,
		Email:               projection.Email,
		CardholderName:      projection.CardholderName,
		Language:            projection.Language,
		ReturnURL:           projection.ReturnURL,
		PaymentProvider:     projection.PaymentProvider,
		DelayedCapture:      projection.DelayedCapture,
		Moto:                projection.Moto,
		Live:                projection.Live,
		Source:              projection.Source,
		RefundedBy:          projection.RefundedBy,
		RefundedByUserEmail: projection.RefundedByUserEmail,
		ParentExternalID:    projection.ParentExternalID,
		EventCount:          projection.EventCount,
		CreatedDate:         projection.CreatedDate,
	}

	if resourceType == domain.ResourceTypeRefund {
		p.resolveParent(ctx, transaction)
	}

	if err := p.store.Upsert(ctx, transaction); err != nil {
		return err
	}
	metrics.ProjectionUpserts.WithLabelValues(transaction.TransactionType).Inc()

	if err := p.cache.DeleteTransaction(ctx, transaction.ExternalID, transaction.TransactionType); err != nil {
		log.Warn().Err(err).
			Str("externalID", transaction.ExternalID).
			Msg("Failed to invalidate transaction cache")
	}

	log.Info().
		Str("externalID", transaction.ExternalID).
		Str("transactionType", transaction.TransactionType).
		Str("state", transaction.State).
		Int("eventCount", transaction.EventCount).
		Msg("Projection refreshed")

	return nil
}

// resolveParent links a refund to its parent payment row when the parent has
// been ingested. The parent may arrive after the refund, so a failed lookup
// is not an error; resolution is retried on the refund's next refresh and by
// the reconciliation sweep.
func (p *TransactionProjector) resolveParent(ctx context.Context, refund *models.Transaction) {
	if refund.ParentExternalID == "" {
		return
	}

	parent, err := p.store.FindByExternalID(ctx, refund.ParentExternalID, models.TransactionTypePayment)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).
				Str("parentExternalID", refund.ParentExternalID).
				Msg("Failed to look up refund parent")
		}
		return
	}

	refund.ParentTransactionID = &parent.ID
	if refund.GatewayAccountID == "" {
		refund.GatewayAccountID = parent.GatewayAccountID
	}
}

func transactionTypeFor(resourceType domain.ResourceType) string {
	if resourceType == domain.ResourceTypeRefund {
		return models.TransactionTypeRefund
	}
	return models.TransactionTypePayment
}
