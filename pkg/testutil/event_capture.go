package testutil

import (
	"sync"

	"line-monitor/pkg/state"
)

// CapturingSink collects domain events for assertions in tests.
type CapturingSink struct {
	mu     sync.Mutex
	Events []state.Event
}

func NewCapturingSink() *CapturingSink { return &CapturingSink{} }

func (c *CapturingSink) Publish(event state.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Events = append(c.Events, event)
}

func (c *CapturingSink) Snapshot() []state.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]state.Event, len(c.Events))
	copy(out, c.Events)
	return out
}

// ByType filters captured events by their EventType string.
func (c *CapturingSink) ByType(eventType string) []state.Event {
	var out []state.Event
	for _, e := range c.Snapshot() {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
