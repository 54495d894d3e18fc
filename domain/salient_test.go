package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSalientStateForPayments(t *testing.T) {
	tests := []struct {
		eventType string
		expected  TransactionState
	}{
		{PaymentCreated, StateCreated},
		{PaymentStarted, StateStarted},
		{PaymentExpired, StateFailedExpired},
		{AuthorisationRejected, StateFailedRejected},
		{AuthorisationSucceeded, StateSubmitted},
		{GatewayTimeoutDuringAuthorisation, StateErrorGateway},
		{CaptureConfirmed, StateSuccess},
		{CaptureAbandonedAfterTooManyRetries, StateError},
		{CancelledByExternalService, StateCancelled},
		{CancelledByUser, StateFailedCancelled},
	}

	for _, tc := range tests {
		state, salient := SalientState(ResourceTypePayment, tc.eventType)
		require.True(t, salient, tc.eventType)
		require.Equal(t, tc.expected, state, tc.eventType)
	}
}

func TestSalientStateForRefunds(t *testing.T) {
	tests := []struct {
		eventType string
		expected  TransactionState
	}{
		{RefundCreatedByUser, StateCreated},
		{RefundCreatedByService, StateCreated},
		{RefundSubmitted, StateSubmitted},
		{RefundSucceeded, StateSuccess},
		{RefundError, StateError},
	}

	for _, tc := range tests {
		state, salient := SalientState(ResourceTypeRefund, tc.eventType)
		require.True(t, salient, tc.eventType)
		require.Equal(t, tc.expected, state, tc.eventType)
	}
}

func TestSalientStateForUnknownEventType(t *testing.T) {
	_, salient := SalientState(ResourceTypePayment, "DISPUTE_CREATED")
	require.False(t, salient)

	// Refund event types are not salient for payments and vice versa.
	_, salient = SalientState(ResourceTypePayment, RefundSucceeded)
	require.False(t, salient)
	_, salient = SalientState(ResourceTypeRefund, CaptureConfirmed)
	require.False(t, salient)
}

func TestIsRefundEventType(t *testing.T) {
	require.True(t, IsRefundEventType(RefundCreatedByService))
	require.False(t, IsRefundEventType(PaymentCreated))
	require.False(t, IsRefundEventType("NOT_AN_EVENT"))
}

func TestDigestIsStableAndDiscriminating(t *testing.T) {
	payload := []byte(`{"amount":1000}`)

	first := Digest(PaymentCreated, "ext-1", payload)
	second := Digest(PaymentCreated, "ext-1", payload)
	require.Equal(t, first, second)

	require.NotEqual(t, first, Digest(PaymentStarted, "ext-1", payload))
	require.NotEqual(t, first, Digest(PaymentCreated, "ext-2", payload))
	require.NotEqual(t, first, Digest(PaymentCreated, "ext-1", []byte(`{"amount":2000}`)))
}
