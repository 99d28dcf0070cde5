package sink

import (
	"sync"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
)

// MockUISubscriber stands in for a real UI subscriber: it appends every
// event and exposes a bounded "recent items" window for display.
type MockUISubscriber struct {
	mu           sync.Mutex
	recentWindow int
	recent       []string
	totalEvents  int
	errorEvents  int
}

// NewMockUISubscriber builds a subscriber keeping the last recentWindow
// relative paths.
func NewMockUISubscriber(recentWindow int) *MockUISubscriber {
	return &MockUISubscriber{recentWindow: recentWindow}
}

func (m *MockUISubscriber) Handle(event v1.CacheEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalEvents++
	if event.Error {
		m.errorEvents++
	}

	m.recent = append(m.recent, event.RelativePath)
	if m.recentWindow > 0 && len(m.recent) > m.recentWindow {
		m.recent = m.recent[len(m.recent)-m.recentWindow:]
	}
}

// TotalEvents returns the number of events observed so far.
func (m *MockUISubscriber) TotalEvents() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalEvents
}

// ErrorEvents returns the number of error events observed so far.
func (m *MockUISubscriber) ErrorEvents() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorEvents
}

// RecentItems returns up to the last recentWindow relative paths seen.
func (m *MockUISubscriber) RecentItems() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.recent))
	copy(out, m.recent)
	return out
}

// Navigator binds a single subscriber and forwards events to it. It
// exists so a caller can depend on the narrower EventSink contract while
// still reaching the subscriber's richer read accessors through Bound().
type Navigator struct {
	subscriber *MockUISubscriber
}

// NewNavigator binds subscriber.
func NewNavigator(subscriber *MockUISubscriber) *Navigator {
	return &Navigator{subscriber: subscriber}
}

func (n *Navigator) Handle(event v1.CacheEvent) {
	n.subscriber.Handle(event)
}

// Bound returns the subscriber this navigator forwards to.
func (n *Navigator) Bound() *MockUISubscriber {
	return n.subscriber
}
