package domain

import (
	"sort"
	"time"

	"example.com/backstage/services/ledger/utils"
)

// Projection is the state snapshot derived from a resource's full event
// history. It carries everything the projection store needs to upsert a
// transaction row.
type Projection struct {
	ResourceExternalID  string
	ResourceType        ResourceType
	State               TransactionState
	EventCount          int
	CreatedDate         time.Time
	GatewayAccountID    string
	Amount              *int64
	Reference           string
	Description         string
	Email               string
	CardholderName      string
	Language            string
	ReturnURL           string
	PaymentProvider     string
	DelayedCapture      bool
	Moto                bool
	Live                bool
	Source              string
	RefundedBy          string
	RefundedByUserEmail string
	ParentExternalID    string
}

// DeriveProjection recomputes a resource's current state from its complete
// event history. The result depends only on the set of events and their
// asserted occurrence order, never on the order of ingestion: events are
// ordered by (occurrence timestamp, ingestion sequence) and folded through
// the static state tables, the last salient event winning. Re-running the
// fold over the same history always yields the same projection.
func DeriveProjection(resourceExternalID string, resourceType ResourceType, events []Event) Projection {
	ordered := make([]Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].EventDate.Equal(ordered[j].EventDate) {
			return ordered[i].EventDate.Before(ordered[j].EventDate)
		}
		return ordered[i].SequenceNumber < ordered[j].SequenceNumber
	})

	projection := Projection{
		ResourceExternalID: resourceExternalID,
		ResourceType:       resourceType,
		State:              StateUndefined,
		EventCount:         len(ordered),
	}

	for i, event := range ordered {
		if i == 0 {
			projection.CreatedDate = event.EventDate
		}
		if state, salient := SalientState(resourceType, event.Type); salient {
			projection.State = state
		}
		if event.ParentExternalID != "" {
			projection.ParentExternalID = event.ParentExternalID
		}
		applyAttributes(&projection, event.Data)
	}

	return projection
}

// applyAttributes folds one event's payload into the projection. A payload
// only overwrites an attribute when it carries the corresponding key, so the
// most recent event carrying an attribute wins.
func applyAttributes(p *Projection, data map[string]interface{}) {
	if data == nil {
		return
	}
	if utils.HasKey(data, "amount") {
		amount := utils.GetInt64Value(data, "amount")
		p.Amount = &amount
	}
	if utils.HasKey(data, "gateway_account_id") {
		p.GatewayAccountID = utils.GetStringValue(data, "gateway_account_id")
	}
	if utils.HasKey(data, "reference") {
		p.Reference = utils.GetStringValue(data, "reference")
	}
	if utils.HasKey(data, "description") {
		p.Description = utils.GetStringValue(data, "description")
	}
	if utils.HasKey(data, "email") {
		p.Email = utils.GetStringValue(data, "email")
	}
	if utils.HasKey(data, "cardholder_name") {
		p.CardholderName = utils.GetStringValue(data, "cardholder_name")
	}
	if utils.HasKey(data, "language") {
		p.Language = utils.GetStringValue(data, "language")
	}
	if utils.HasKey(data, "return_url") {
		p.ReturnURL = utils.GetStringValue(data, "return_url")
	}
	if utils.HasKey(data, "payment_provider") {
		p.PaymentProvider = utils.GetStringValue(data, "payment_provider")
	}
	if utils.HasKey(data, "delayed_capture") {
		p.DelayedCapture = utils.GetBoolValue(data, "delayed_capture")
	}
	if utils.HasKey(data, "moto") {
		p.Moto = utils.GetBoolValue(data, "moto")
	}
	if utils.HasKey(data, "live") {
		p.Live = utils.GetBoolValue(data, "live")
	}
	if utils.HasKey(data, "source") {
		p.Source = utils.GetStringValue(data, "source")
	}
	if utils.HasKey(data, "refunded_by") {
		p.RefundedBy = utils.GetStringValue(data, "refunded_by")
	}
	if utils.HasKey(data, "refunded_by_user_email") {
		p.RefundedByUserEmail = utils.GetStringValue(data, "refunded_by_user_email")
	}
}
