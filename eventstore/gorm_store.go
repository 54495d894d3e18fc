package eventstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/backstage/services/ledger/domain"
	"example.com/backstage/services/ledger/models"
)

// GormEventStore implements EventStore using GORM
type GormEventStore struct {
	db *gorm.DB
}

// NewGormEventStore creates a new GORM event store
func NewGormEventStore(db *gorm.DB) *GormEventStore {
	return &GormEventStore{db: db}
}

// AppendEvent persists an event. Deduplication rides on the composite unique
// index over (resource_external_id, digest): a conflicting insert is a no-op
// and is reported as Duplicate, which makes redelivery of an already
// processed message harmless.
func (s *GormEventStore) AppendEvent(ctx context.Context, event *domain.Event) (AppendOutcome, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return Duplicate, fmt.Errorf("failed to marshal event data: %w", err)
	}

	dbEvent := models.Event{
		ResourceExternalID: event.ResourceExternalID,
		ResourceType:       string(event.ResourceType),
		ParentExternalID:   event.ParentExternalID,
		EventType:          event.Type,
		EventDate:          event.EventDate,
		EventData:          data,
		Digest:             domain.Digest(event.Type, event.ResourceExternalID, data),
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "resource_external_id"}, {Name: "digest"}},
			DoNothing: true,
		}).
		Create(&dbEvent)
	if result.Error != nil {
		return Duplicate, fmt.Errorf("failed to append event: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		log.Debug().
			Str("resourceExternalID", event.ResourceExternalID).
			Str("eventType", event.Type).
			Msg("Duplicate event ignored")
		return Duplicate, nil
	}

	event.SequenceNumber = dbEvent.ID

	log.Info().
		Str("resourceExternalID", event.ResourceExternalID).
		Str("eventType", event.Type).
		Uint("sequence", dbEvent.ID).
		Msg("Event appended")

	return Stored, nil
}

// EventsForResource returns a resource's full event history in derivation
// order: occurrence timestamp ascending, ingestion sequence as tie-break.
func (s *GormEventStore) EventsForResource(ctx context.Context, resourceExternalID string) ([]domain.Event, error) {
	var dbEvents []models.Event
	if err := s.db.WithContext(ctx).
		Where("resource_external_id = ?", resourceExternalID).
		Order("event_date ASC, id ASC").
		Find(&dbEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	events := make([]domain.Event, len(dbEvents))
	for i, dbEvent := range dbEvents {
		var data map[string]interface{}
		if len(dbEvent.EventData) > 0 {
			if err := json.Unmarshal(dbEvent.EventData, &data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
			}
		}

		events[i] = domain.Event{
			SequenceNumber:     dbEvent.ID,
			ResourceExternalID: dbEvent.ResourceExternalID,
			ResourceType:       domain.ResourceType(dbEvent.ResourceType),
			ParentExternalID:   dbEvent.ParentExternalID,
			Type:               dbEvent.EventType,
			EventDate:          dbEvent.EventDate,
			Data:               data,
		}
	}

	return events, nil
}
