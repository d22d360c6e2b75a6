package mocks

import (
	"context"
	"sync"

	"github.com/example/licorice-storefront/internal/domain/events"
)

// MockPublisher records published events
type MockPublisher struct {
	mu         sync.Mutex
	Events     []events.Event
	PublishErr error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Events: make([]events.Event, 0)}
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Events = append(m.Events, event)
	return m.PublishErr
}

// EventTypes returns the types of the recorded events in order
func (m *MockPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.EventType
	}
	return types
}
