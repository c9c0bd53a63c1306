// Package events handles event emission for match lifecycle changes
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/campusfound/beacon/pkg/kafka"
	"github.com/campusfound/beacon/pkg/models"
	"github.com/campusfound/beacon/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter handles event emission for Beacon
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitMatchProposed emits an event when a new match is persisted
func (e *Emitter) EmitMatchProposed(ctx context.Context, m *models.Match) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchProposed")
	defer span.End()

	event := &kafka.MatchEvent{
		EventType:   kafka.MatchEventProposed,
		MatchID:     m.ID,
		LostItemID:  m.LostItemID,
		FoundItemID: m.FoundItemID,
		Score:       m.Score,
		Breakdown:   m.ScoreBreakdown.GetValue(),
	}

	if err := e.producer.PublishMatchEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit match.proposed event")
		return err
	}

	return nil
}

// EmitMatchResolved emits the event for a staff decision on a match
func (e *Emitter) EmitMatchResolved(ctx context.Context, m *models.Match) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchResolved")
	defer span.End()

	var eventType string
	switch m.Status {
	case models.MatchStatusNotified:
		eventType = kafka.MatchEventNotified
	case models.MatchStatusConfirmed:
		eventType = kafka.MatchEventConfirmed
	case models.MatchStatusRejected:
		eventType = kafka.MatchEventRejected
	default:
		return nil
	}

	event := &kafka.MatchEvent{
		EventType:   eventType,
		MatchID:     m.ID,
		LostItemID:  m.LostItemID,
		FoundItemID: m.FoundItemID,
		Score:       m.Score,
		ResolvedBy:  m.ResolvedBy,
	}

	if err := e.producer.PublishMatchEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
		}).Error("Failed to emit match resolution event")
		return err
	}

	return nil
}
