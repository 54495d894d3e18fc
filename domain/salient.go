package domain

// TransactionState is the derived lifecycle state of a transaction projection.
type TransactionState string

// Transaction states
const (
	StateUndefined       TransactionState = "UNDEFINED"
	StateCreated         TransactionState = "CREATED"
	StateStarted         TransactionState = "STARTED"
	StateSubmitted       TransactionState = "SUBMITTED"
	StateSuccess         TransactionState = "SUCCESS"
	StateError           TransactionState = "ERROR"
	StateErrorGateway    TransactionState = "ERROR_GATEWAY"
	StateFailedRejected  TransactionState = "FAILED_REJECTED"
	StateFailedExpired   TransactionState = "FAILED_EXPIRED"
	StateFailedCancelled TransactionState = "FAILED_CANCELLED"
	StateCancelled       TransactionState = "CANCELLED"
)

// Payment lifecycle event types
const (
	PaymentCreated                            = "PAYMENT_CREATED"
	PaymentStarted                            = "PAYMENT_STARTED"
	PaymentExpired                            = "PAYMENT_EXPIRED"
	AuthorisationRejected                     = "AUTHORISATION_REJECTED"
	AuthorisationSucceeded                    = "AUTHORISATION_SUCCEEDED"
	AuthorisationCancelled                    = "AUTHORISATION_CANCELLED"
	GatewayErrorDuringAuthorisation           = "GATEWAY_ERROR_DURING_AUTHORISATION"
	GatewayTimeoutDuringAuthorisation         = "GATEWAY_TIMEOUT_DURING_AUTHORISATION"
	UnexpectedGatewayErrorDuringAuthorisation = "UNEXPECTED_GATEWAY_ERROR_DURING_AUTHORISATION"
	GatewayRequires3dsAuthorisation           = "GATEWAY_REQUIRES_3DS_AUTHORISATION"
	CaptureConfirmed                          = "CAPTURE_CONFIRMED"
	CaptureSubmitted                          = "CAPTURE_SUBMITTED"
	CaptureErrored                            = "CAPTURE_ERRORED"
	CaptureAbandonedAfterTooManyRetries       = "CAPTURE_ABANDONED_AFTER_TOO_MANY_RETRIES"
	UserApprovedForCapture                    = "USER_APPROVED_FOR_CAPTURE"
	UserApprovedForCaptureAwaitingService     = "USER_APPROVED_FOR_CAPTURE_AWAITING_SERVICE_APPROVAL"
	ServiceApprovedForCapture                 = "SERVICE_APPROVED_FOR_CAPTURE"
	CancelByExpirationSubmitted               = "CANCEL_BY_EXPIRATION_SUBMITTED"
	CancelByExpirationFailed                  = "CANCEL_BY_EXPIRATION_FAILED"
	CancelledByExpiration                     = "CANCELLED_BY_EXPIRATION"
	CancelByExternalServiceSubmitted          = "CANCEL_BY_EXTERNAL_SERVICE_SUBMITTED"
	CancelByExternalServiceFailed             = "CANCEL_BY_EXTERNAL_SERVICE_FAILED"
	CancelledByExternalService                = "CANCELLED_BY_EXTERNAL_SERVICE"
	CancelByUserSubmitted                     = "CANCEL_BY_USER_SUBMITTED"
	CancelByUserFailed                        = "CANCEL_BY_USER_FAILED"
	CancelledByUser                           = "CANCELLED_BY_USER"
)

// Refund lifecycle event types
const (
	RefundCreatedByUser    = "REFUND_CREATED_BY_USER"
	RefundCreatedByService = "REFUND_CREATED_BY_SERVICE"
	RefundSubmitted        = "REFUND_SUBMITTED"
	RefundSucceeded        = "REFUND_SUCCEEDED"
	RefundError            = "REFUND_ERROR"
)

// paymentStates maps salient payment event types to the state they produce.
// Event types absent from this table are stored for audit but never move the
// state of a payment projection.
var paymentStates = map[string]TransactionState{
	PaymentCreated:                            StateCreated,
	PaymentStarted:                            StateStarted,
	PaymentExpired:                            StateFailedExpired,
	AuthorisationRejected:                     StateFailedRejected,
	AuthorisationSucceeded:                    StateSubmitted,
	AuthorisationCancelled:                    StateFailedCancelled,
	GatewayErrorDuringAuthorisation:           StateErrorGateway,
	GatewayTimeoutDuringAuthorisation:         StateErrorGateway,
	UnexpectedGatewayErrorDuringAuthorisation: StateErrorGateway,
	GatewayRequires3dsAuthorisation:           StateSubmitted,
	CaptureConfirmed:                          StateSuccess,
	CaptureSubmitted:                          StateSubmitted,
	CaptureErrored:                            StateError,
	CaptureAbandonedAfterTooManyRetries:       StateError,
	UserApprovedForCapture:                    StateSubmitted,
	UserApprovedForCaptureAwaitingService:     StateSubmitted,
	ServiceApprovedForCapture:                 StateSubmitted,
	CancelByExpirationSubmitted:               StateSubmitted,
	CancelByExpirationFailed:                  StateError,
	CancelledByExpiration:                     StateFailedExpired,
	CancelByExternalServiceSubmitted:          StateSubmitted,
	CancelByExternalServiceFailed:             StateError,
	CancelledByExternalService:                StateCancelled,
	CancelByUserSubmitted:                     StateSubmitted,
	CancelByUserFailed:                        StateError,
	CancelledByUser:                           StateFailedCancelled,
}

// refundStates maps salient refund event types to the state they produce.
var refundStates = map[string]TransactionState{
	RefundCreatedByUser:    StateCreated,
	RefundCreatedByService: StateCreated,
	RefundSubmitted:        StateSubmitted,
	RefundSucceeded:        StateSuccess,
	RefundError:            StateError,
}

// SalientState looks up the state an event type maps to for the given
// resource type. The second return is false for non-salient event types.
func SalientState(resourceType ResourceType, eventType string) (TransactionState, bool) {
	if resourceType == ResourceTypeRefund {
		state, ok := refundStates[eventType]
		return state, ok
	}
	state, ok := paymentStates[eventType]
	return state, ok
}

// IsRefundEventType reports whether an event type belongs to the refund
// lifecycle. Used to classify envelopes that omit the resource type.
func IsRefundEventType(eventType string) bool {
	_, ok := refundStates[eventType]
	return ok
}
