package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ledger/domain"
	"example.com/backstage/services/ledger/handlers"
	"example.com/backstage/services/ledger/metrics"
	"example.com/backstage/services/ledger/utils"
)

// EventEnvelope is the wire format of a queue message.
type EventEnvelope struct {
	ResourceExternalID string          `json:"resource_external_id" validate:"required"`
	ParentExternalID   string          `json:"parent_resource_external_id"`
	ResourceType       string          `json:"resource_type"`
	EventType          string          `json:"event_type" validate:"required"`
	Timestamp          time.Time       `json:"timestamp" validate:"required"`
	EventData          json.RawMessage `json:"event_data"`
}

// MessageProcessor handles one received queue message end to end.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error
}

// Processor parses event envelopes and feeds them through the ingestion
// pipeline. A returned error means the message must not be acknowledged; the
// queue's own redelivery (and, past its delivery limit, its dead-letter path)
// handles retries.
type Processor struct {
	eventHandler *handlers.EventHandler
}

// NewProcessor creates a new message processor
func NewProcessor(eventHandler *handlers.EventHandler) *Processor {
	return &Processor{eventHandler: eventHandler}
}

// ProcessMessage parses and ingests one message.
func (p *Processor) ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	start := time.Now()

	event, err := ParseEnvelope(message.Body)
	if err != nil {
		return fmt.Errorf("malformed envelope: %w", err)
	}

	log.Info().
		Str("resourceExternalID", event.ResourceExternalID).
		Str("eventType", event.Type).
		Msg("Processing message")

	if err := p.eventHandler.HandleEvent(ctx, event); err != nil {
		return err
	}

	metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	return nil
}

// ParseEnvelope turns a raw message body into a domain event. Envelopes that
// omit the resource type are classified by their event type: refund-lifecycle
// types produce refund events, everything else a payment event.
func ParseEnvelope(body []byte) (*domain.Event, error) {
	var envelope EventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if err := utils.ValidateStruct(envelope); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	data, err := parseEventData(envelope.EventData)
	if err != nil {
		return nil, err
	}

	resourceType := domain.ResourceType(envelope.ResourceType)
	if resourceType != domain.ResourceTypePayment && resourceType != domain.ResourceTypeRefund {
		resourceType = domain.ResourceTypePayment
		if domain.IsRefundEventType(envelope.EventType) {
			resourceType = domain.ResourceTypeRefund
		}
	}

	return &domain.Event{
		ResourceExternalID: envelope.ResourceExternalID,
		ResourceType:       resourceType,
		ParentExternalID:   envelope.ParentExternalID,
		Type:               envelope.EventType,
		EventDate:          envelope.Timestamp,
		Data:               data,
	}, nil
}

// parseEventData accepts the payload either as a JSON object or as a JSON
// string containing an object, which is how some producers double-encode it.
func parseEventData(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err == nil {
		return data, nil
	}

	var nested string
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
	}
	if err := json.Unmarshal([]byte(nested), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nested event data: %w", err)
	}
	return data, nil
}
