package kafka

import (
	"encoding/json"
	"fmt"
	"time"
)

// Item event types published by the intake application
const (
	ItemEventReported = "item.reported"
	ItemEventApproved = "item.approved"
	ItemEventUpdated  = "item.updated"
	ItemEventClaimed  = "item.claimed"
	ItemEventArchived = "item.archived"
)

// ItemEvent is the intake application's notification about an item change
type ItemEvent struct {
	EventType string    `json:"event_type"`
	ItemID    string    `json:"item_id"`
	Status    string    `json:"status"`
	Approved  bool      `json:"approved"`
	Timestamp time.Time `json:"timestamp"`
}

// TriggersScan reports whether this event should kick off a match scan.
// Only events for approved items are worth scanning.
func (e *ItemEvent) TriggersScan() bool {
	switch e.EventType {
	case ItemEventApproved, ItemEventUpdated:
		return e.Approved
	case ItemEventReported:
		return e.Approved // intake auto-approves trusted reporters
	default:
		return false
	}
}

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	ItemEvent *ItemEvent
}

// ParseItemEvent parses the message value as an item event
func (m *IncomingMessage) ParseItemEvent() error {
	var evt ItemEvent
	if err := json.Unmarshal(m.Value, &evt); err != nil {
		return err
	}
	if evt.EventType == "" || evt.ItemID == "" {
		return fmt.Errorf("item event missing event_type or item_id")
	}
	m.ItemEvent = &evt
	return nil
}

// GetItemID returns the item the message concerns, header fallback included
func (m *IncomingMessage) GetItemID() string {
	if m.ItemEvent != nil {
		return m.ItemEvent.ItemID
	}
	if id := m.Headers["item_id"]; id != "" {
		return id
	}
	return m.Key
}

// GetEventType returns the event type, header fallback included
func (m *IncomingMessage) GetEventType() string {
	if m.ItemEvent != nil {
		return m.ItemEvent.EventType
	}
	return m.Headers["event_type"]
}
