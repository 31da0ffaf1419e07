package mocks

import (
	"context"
	"sync"

	"github.com/godilite/perception-server/pkg/events"
)

// MockEventPublisher records published events and returns Err when set.
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []events.Event
	Err    error
}

func (m *MockEventPublisher) Publish(_ context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockEventPublisher) Published() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.Events...)
}
