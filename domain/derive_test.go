package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func paymentEvent(seq uint, eventType string, date time.Time, data map[string]interface{}) Event {
	return Event{
		SequenceNumber:     seq,
		ResourceExternalID: "ext-1",
		ResourceType:       ResourceTypePayment,
		Type:               eventType,
		EventDate:          date,
		Data:               data,
	}
}

func TestDeriveProjectionFollowsOccurrenceOrder(t *testing.T) {
	t1 := time.Date(2020, 1, 30, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	// Delivered (and therefore sequenced) in reverse occurrence order.
	events := []Event{
		paymentEvent(1, CaptureConfirmed, t2, nil),
		paymentEvent(2, PaymentCreated, t1, map[string]interface{}{"amount": float64(1000)}),
	}

	projection := DeriveProjection("ext-1", ResourceTypePayment, events)

	require.Equal(t, StateSuccess, projection.State)
	require.Equal(t, 2, projection.EventCount)
	require.Equal(t, t1, projection.CreatedDate)
	require.NotNil(t, projection.Amount)
	require.Equal(t, int64(1000), *projection.Amount)
}

func TestDeriveProjectionIsDeterministicUnderPermutation(t *testing.T) {
	base := time.Date(2020, 1, 30, 8, 0, 0, 0, time.UTC)
	events := []Event{
		paymentEvent(1, PaymentCreated, base, map[string]interface{}{
			"amount":             float64(1000),
			"gateway_account_id": "acct-1",
			"reference":          "ref-1",
		}),
		paymentEvent(2, PaymentStarted, base.Add(time.Second), nil),
		paymentEvent(3, AuthorisationSucceeded, base.Add(2*time.Second), nil),
		paymentEvent(4, CaptureSubmitted, base.Add(3*time.Second), nil),
		paymentEvent(5, CaptureConfirmed, base.Add(4*time.Second), nil),
	}

	expected := DeriveProjection("ext-1", ResourceTypePayment, events)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]Event, len(events))
		copy(shuffled, events)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		projection := DeriveProjection("ext-1", ResourceTypePayment, shuffled)
		require.Equal(t, expected, projection)
	}
}

func TestDeriveProjectionWithNoSalientEvents(t *testing.T) {
	now := time.Date(2020, 1, 30, 8, 0, 0, 0, time.UTC)
	events := []Event{
		paymentEvent(1, "FEE_INCURRED", now, map[string]interface{}{"amount": float64(50)}),
	}

	projection := DeriveProjection("ext-1", ResourceTypePayment, events)

	require.Equal(t, StateUndefined, projection.State)
	require.Equal(t, 1, projection.EventCount)
}

func TestDeriveProjectionIgnoresUnknownEventTypesForState(t *testing.T) {
	t1 := time.Date(2020, 1, 30, 8, 0, 0, 0, time.UTC)
	events := []Event{
		paymentEvent(1, PaymentCreated, t1, map[string]interface{}{"amount": float64(1000)}),
		paymentEvent(2, "SOMETHING_UNEXPECTED", t1.Add(time.Minute), nil),
	}

	projection := DeriveProjection("ext-1", ResourceTypePayment, events)

	require.Equal(t, StateCreated, projection.State)
	require.Equal(t, 2, projection.EventCount)
}

func TestDeriveProjectionBreaksTimestampTiesBySequence(t *testing.T) {
	now := time.Date(2020, 1, 30, 8, 0, 0, 0, time.UTC)
	events := []Event{
		paymentEvent(2, CaptureErrored, now, nil),
		paymentEvent(1, CaptureConfirmed, now, nil),
	}

	projection := DeriveProjection("ext-1", ResourceTypePayment, events)

	// Same occurrence timestamp: the later-appended event wins.
	require.Equal(t, StateError, projection.State)
}

func TestDeriveProjectionAttributesAreLastWriterWins(t *testing.T) {
	t1 := time.Date(2020, 1, 30, 8, 0, 0, 0, time.UTC)
	events := []Event{
		paymentEvent(1, PaymentCreated, t1, map[string]interface{}{
			"amount":      float64(1000),
			"description": "first description",
			"live":        true,
		}),
		paymentEvent(2, CaptureConfirmed, t1.Add(time.Minute), map[string]interface{}{
			"description": "updated description",
		}),
	}

	projection := DeriveProjection("ext-1", ResourceTypePayment, events)

	require.Equal(t, "updated description", projection.Description)
	require.True(t, projection.Live)
	require.NotNil(t, projection.Amount)
	require.Equal(t, int64(1000), *projection.Amount)
}

func TestDeriveProjectionForRefund(t *testing.T) {
	t1 := time.Date(2020, 1, 30, 8, 0, 0, 0, time.UTC)
	events := []Event{
		{
			SequenceNumber:     1,
			ResourceExternalID: "refund-1",
			ResourceType:       ResourceTypeRefund,
			ParentExternalID:   "payment-1",
			Type:               RefundCreatedByUser,
			EventDate:          t1,
			Data: map[string]interface{}{
				"amount":      float64(250),
				"refunded_by": "user-1",
			},
		},
		{
			SequenceNumber:     2,
			ResourceExternalID: "refund-1",
			ResourceType:       ResourceTypeRefund,
			Type:               RefundSucceeded,
			EventDate:          t1.Add(time.Minute),
		},
	}

	projection := DeriveProjection("refund-1", ResourceTypeRefund, events)

	require.Equal(t, StateSuccess, projection.State)
	require.Equal(t, "payment-1", projection.ParentExternalID)
	require.Equal(t, "user-1", projection.RefundedBy)
	require.NotNil(t, projection.Amount)
	require.Equal(t, int64(250), *projection.Amount)
}
