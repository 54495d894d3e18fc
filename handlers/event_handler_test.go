package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/backstage/services/ledger/cache"
	"example.com/backstage/services/ledger/config"
	"example.com/backstage/services/ledger/domain"
	"example.com/backstage/services/ledger/eventstore"
	"example.com/backstage/services/ledger/locks"
	"example.com/backstage/services/ledger/models"
	"example.com/backstage/services/ledger/projections"
)

// In-memory event store with the same dedup and ordering contract as the
// GORM implementation.
type memoryEventStore struct {
	seq     uint
	events  []domain.Event
	digests map[string]struct{}
}

func newMemoryEventStore() *memoryEventStore {
	return &memoryEventStore{digests: map[string]struct{}{}}
}

func (s *memoryEventStore) AppendEvent(_ context.Context, event *domain.Event) (eventstore.AppendOutcome, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return eventstore.Duplicate, err
	}
	key := event.ResourceExternalID + ":" + domain.Digest(event.Type, event.ResourceExternalID, data)
	if _, ok := s.digests[key]; ok {
		return eventstore.Duplicate, nil
	}
	s.digests[key] = struct{}{}
	s.seq++
	event.SequenceNumber = s.seq
	s.events = append(s.events, *event)
	return eventstore.Stored, nil
}

func (s *memoryEventStore) EventsForResource(_ context.Context, resourceExternalID string) ([]domain.Event, error) {
	var history []domain.Event
	for _, event := range s.events {
		if event.ResourceExternalID == resourceExternalID {
			history = append(history, event)
		}
	}
	return history, nil
}

// In-memory transaction store keyed like the projection table.
type memoryTransactionStore struct {
	nextID uint
	rows   map[string]*models.Transaction
}

func newMemoryTransactionStore() *memoryTransactionStore {
	return &memoryTransactionStore{rows: map[string]*models.Transaction{}}
}

func rowKey(externalID, transactionType string) string {
	return fmt.Sprintf("%s|%s", externalID, transactionType)
}

func (s *memoryTransactionStore) Upsert(_ context.Context, transaction *models.Transaction) error {
	key := rowKey(transaction.ExternalID, transaction.TransactionType)
	if existing, ok := s.rows[key]; ok {
		transaction.ID = existing.ID
	} else {
		s.nextID++
		transaction.ID = s.nextID
	}
	clone := *transaction
	s.rows[key] = &clone
	return nil
}

func (s *memoryTransactionStore) FindByExternalID(_ context.Context, externalID, transactionType string) (*models.Transaction, error) {
	if row, ok := s.rows[rowKey(externalID, transactionType)]; ok {
		clone := *row
		return &clone, nil
	}
	return nil, projections.ErrNotFound
}

func (s *memoryTransactionStore) Search(_ context.Context, _ projections.SearchParams) ([]models.Transaction, error) {
	return nil, nil
}

func (s *memoryTransactionStore) UnresolvedRefunds(_ context.Context, limit int) ([]models.Transaction, error) {
	var refunds []models.Transaction
	for _, row := range s.rows {
		if row.TransactionType == models.TransactionTypeRefund &&
			row.ParentExternalID != "" && row.ParentTransactionID == nil {
			refunds = append(refunds, *row)
		}
		if len(refunds) == limit {
			break
		}
	}
	return refunds, nil
}

func newTestHandler(t *testing.T) (*EventHandler, *memoryEventStore, *memoryTransactionStore) {
	t.Helper()

	events := newMemoryEventStore()
	transactions := newMemoryTransactionStore()
	cacheClient, err := cache.NewRedisClient(config.Config{RedisEnabled: false})
	require.NoError(t, err)

	projector := projections.NewTransactionProjector(events, transactions, cacheClient)
	handler := NewEventHandler(events, projector, locks.NewKeyedMutex(16))
	return handler, events, transactions
}

func paymentCreatedEvent(externalID string, date time.Time) *domain.Event {
	return &domain.Event{
		ResourceExternalID: externalID,
		ResourceType:       domain.ResourceTypePayment,
		Type:               domain.PaymentCreated,
		EventDate:          date,
		Data: map[string]interface{}{
			"amount":             float64(1000),
			"gateway_account_id": "acct-A",
		},
	}
}

func TestHandleEventEndToEnd(t *testing.T) {
	handler, _, transactions := newTestHandler(t)
	ctx := context.Background()
	t1 := time.Date(2020, 1, 30, 8, 46, 1, 0, time.UTC)

	require.NoError(t, handler.HandleEvent(ctx, paymentCreatedEvent("X", t1)))

	row, err := transactions.FindByExternalID(ctx, "X", models.TransactionTypePayment)
	require.NoError(t, err)
	require.Equal(t, string(domain.StateCreated), row.State)
	require.Equal(t, int64(1000), *row.Amount)
	require.Equal(t, "acct-A", row.GatewayAccountID)
	require.Equal(t, 1, row.EventCount)

	require.NoError(t, handler.HandleEvent(ctx, &domain.Event{
		ResourceExternalID: "X",
		ResourceType:       domain.ResourceTypePayment,
		Type:               domain.CaptureConfirmed,
		EventDate:          t1.Add(time.Minute),
	}))

	row, err = transactions.FindByExternalID(ctx, "X", models.TransactionTypePayment)
	require.NoError(t, err)
	require.Equal(t, string(domain.StateSuccess), row.State)
	require.Equal(t, 2, row.EventCount)

	// Redelivery of the original message is a successful no-op.
	require.NoError(t, handler.HandleEvent(ctx, paymentCreatedEvent("X", t1)))

	row, err = transactions.FindByExternalID(ctx, "X", models.TransactionTypePayment)
	require.NoError(t, err)
	require.Equal(t, string(domain.StateSuccess), row.State)
	require.Equal(t, 2, row.EventCount)
}

func TestHandleEventOutOfOrderDelivery(t *testing.T) {
	handler, _, transactions := newTestHandler(t)
	ctx := context.Background()
	t1 := time.Date(2020, 1, 30, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	// The capture event arrives before the creation event.
	require.NoError(t, handler.HandleEvent(ctx, &domain.Event{
		ResourceExternalID: "Y",
		ResourceType:       domain.ResourceTypePayment,
		Type:               domain.CaptureConfirmed,
		EventDate:          t2,
	}))

	row, err := transactions.FindByExternalID(ctx, "Y", models.TransactionTypePayment)
	require.NoError(t, err)
	require.Equal(t, string(domain.StateSuccess), row.State)

	require.NoError(t, handler.HandleEvent(ctx, paymentCreatedEvent("Y", t1)))

	row, err = transactions.FindByExternalID(ctx, "Y", models.TransactionTypePayment)
	require.NoError(t, err)
	require.Equal(t, string(domain.StateSuccess), row.State)
	require.Equal(t, t1, row.CreatedDate)
	require.Equal(t, 2, row.EventCount)
	require.Equal(t, int64(1000), *row.Amount)
}

func TestHandleEventRefundBeforeParent(t *testing.T) {
	handler, _, transactions := newTestHandler(t)
	ctx := context.Background()
	t1 := time.Date(2020, 1, 30, 8, 0, 0, 0, time.UTC)

	require.NoError(t, handler.HandleEvent(ctx, &domain.Event{
		ResourceExternalID: "refund-1",
		ResourceType:       domain.ResourceTypeRefund,
		ParentExternalID:   "P",
		Type:               domain.RefundCreatedByService,
		EventDate:          t1.Add(time.Hour),
		Data:               map[string]interface{}{"amount": float64(250)},
	}))

	refund, err := transactions.FindByExternalID(ctx, "refund-1", models.TransactionTypeRefund)
	require.NoError(t, err)
	require.Equal(t, "P", refund.ParentExternalID)
	require.Nil(t, refund.ParentTransactionID)

	// The parent payment arrives later; the next refund event re-resolves.
	require.NoError(t, handler.HandleEvent(ctx, paymentCreatedEvent("P", t1)))
	require.NoError(t, handler.HandleEvent(ctx, &domain.Event{
		ResourceExternalID: "refund-1",
		ResourceType:       domain.ResourceTypeRefund,
		ParentExternalID:   "P",
		Type:               domain.RefundSucceeded,
		EventDate:          t1.Add(2 * time.Hour),
	}))

	parent, err := transactions.FindByExternalID(ctx, "P", models.TransactionTypePayment)
	require.NoError(t, err)

	refund, err = transactions.FindByExternalID(ctx, "refund-1", models.TransactionTypeRefund)
	require.NoError(t, err)
	require.NotNil(t, refund.ParentTransactionID)
	require.Equal(t, parent.ID, *refund.ParentTransactionID)
	require.Equal(t, string(domain.StateSuccess), refund.State)
}

func TestHandleEventUnknownEventType(t *testing.T) {
	handler, _, transactions := newTestHandler(t)
	ctx := context.Background()
	t1 := time.Date(2020, 1, 30, 8, 0, 0, 0, time.UTC)

	require.NoError(t, handler.HandleEvent(ctx, paymentCreatedEvent("Z", t1)))
	require.NoError(t, handler.HandleEvent(ctx, &domain.Event{
		ResourceExternalID: "Z",
		ResourceType:       domain.ResourceTypePayment,
		Type:               "BACKFILLER_RECREATED_USER_DATA",
		EventDate:          t1.Add(time.Minute),
	}))

	row, err := transactions.FindByExternalID(ctx, "Z", models.TransactionTypePayment)
	require.NoError(t, err)
	require.Equal(t, string(domain.StateCreated), row.State)
	require.Equal(t, 2, row.EventCount)
}
