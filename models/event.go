package models

import (
	"time"
)

// Event is a single ingested ledger event in the database. Rows are
// append-only: they are never updated or deleted once written.
//
// ID doubles as the ingestion sequence number. It is assigned by the
// database at insert time and breaks ties between events that assert the
// same occurrence timestamp.
type Event struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ResourceExternalID string    `gorm:"index:idx_events_resource;uniqueIndex:idx_events_resource_digest" json:"resource_external_id"`
	ResourceType       string    `json:"resource_type"`
	ParentExternalID   string    `json:"parent_external_id"`
	EventType          string    `json:"event_type"`
	EventDate          time.Time `json:"event_date"`
	EventData          []byte    `json:"event_data"`
	Digest             string    `gorm:"uniqueIndex:idx_events_resource_digest" json:"digest"`
	CreatedAt          time.Time `json:"created_at"`
}
