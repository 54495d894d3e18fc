package projections

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ledger/domain"
	"example.com/backstage/services/ledger/locks"
	"example.com/backstage/services/ledger/metrics"
	"example.com/backstage/services/ledger/models"
)

// Reconciler periodically re-derives refund projections whose parent payment
// had not arrived when the refund was last refreshed. Resolution is idempotent,
// so sweeping a refund whose parent still has not appeared is a no-op.
type Reconciler struct {
	store     TransactionStore
	projector *TransactionProjector
	keyLocks  *locks.KeyedMutex
	batchSize int
	interval  time.Duration
	running   bool
	mutex     sync.Mutex
	stopChan  chan struct{}
}

// NewReconciler creates a new reconciler
func NewReconciler(store TransactionStore, projector *TransactionProjector, keyLocks *locks.KeyedMutex, interval time.Duration) *Reconciler {
	return &Reconciler{
		store:     store,
		projector: projector,
		keyLocks:  keyLocks,
		batchSize: 100,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start starts the reconciliation loop
func (r *Reconciler) Start() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.running {
		return
	}

	r.running = true
	go r.run()
}

// Stop stops the reconciliation loop
func (r *Reconciler) Stop() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.running {
		return
	}

	r.running = false
	r.stopChan <- struct{}{}
}

func (r *Reconciler) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.sweep(context.Background()); err != nil {
				log.Error().Err(err).Msg("Reconciliation sweep failed")
			}
		case <-r.stopChan:
			return
		}
	}
}

// sweep re-refreshes every refund still waiting for its parent.
func (r *Reconciler) sweep(ctx context.Context) error {
	refunds, err := r.store.UnresolvedRefunds(ctx, r.batchSize)
	if err != nil {
		return err
	}
	if len(refunds) == 0 {
		return nil
	}

	log.Info().Int("count", len(refunds)).Msg("Sweeping unresolved refunds")

	for _, refund := range refunds {
		if err := r.reconcile(ctx, refund); err != nil {
			log.Error().Err(err).
				Str("externalID", refund.ExternalID).
				Msg("Failed to reconcile refund")
		}
	}

	return nil
}

func (r *Reconciler) reconcile(ctx context.Context, refund models.Transaction) error {
	unlock := r.keyLocks.Lock(refund.ExternalID)
	defer unlock()

	if err := r.projector.Refresh(ctx, refund.ExternalID, domain.ResourceTypeRefund); err != nil {
		return err
	}

	refreshed, err := r.store.FindByExternalID(ctx, refund.ExternalID, models.TransactionTypeRefund)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if refreshed.ParentTransactionID != nil {
		metrics.OrphanRefundsResolved.Inc()
		log.Info().
			Str("externalID", refund.ExternalID).
			Str("parentExternalID", refund.ParentExternalID).
			Msg("Orphan refund resolved")
	}

	return nil
}
