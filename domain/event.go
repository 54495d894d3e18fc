package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ResourceType discriminates the two lifecycles an event can belong to.
type ResourceType string

const (
	ResourceTypePayment ResourceType = "payment"
	ResourceTypeRefund  ResourceType = "refund"
)

// Event is an immutable lifecycle fact about a single resource.
//
// EventDate is the occurrence timestamp asserted by the producer, not the
// time of ingestion. SequenceNumber is the store-assigned ingestion sequence
// and is zero until the event has been appended.
type Event struct {
	SequenceNumber     uint
	ResourceExternalID string
	ResourceType       ResourceType
	ParentExternalID   string
	Type               string
	EventDate          time.Time
	Data               map[string]interface{}
}

// TransactionType returns the projection type discriminator for the event's
// resource.
func (e Event) TransactionType() string {
	if e.ResourceType == ResourceTypeRefund {
		return "REFUND"
	}
	return "PAYMENT"
}

// Digest fingerprints an event for deduplication. Two deliveries of the same
// message produce the same digest; the store rejects the second one.
func Digest(eventType, resourceExternalID string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(eventType))
	h.Write([]byte{0})
	h.Write([]byte(resourceExternalID))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
