// Package events defines the envelope used to publish storefront domain
// events and the publisher abstraction the stores depend on.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope published for every store mutation
type Event struct {
	ID          string          `json:"id"`
	AggregateID string          `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Data        json.RawMessage `json:"data"`
	Timestamp   time.Time       `json:"timestamp"`
}

// New builds an envelope around data
func New(aggregateID, eventType string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:          uuid.New().String(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Data:        raw,
		Timestamp:   time.Now(),
	}, nil
}

// Publisher delivers domain events. Stores treat publishing as best effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
