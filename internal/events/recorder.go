package events

import (
	"context"
	"sync"
)

type Recorded struct {
	EventType string
	Key       string
	Data      interface{}
}

// Recorder keeps published events in memory. Tests use it to assert on side effects.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

func (r *Recorder) Publish(ctx context.Context, eventType, key string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{EventType: eventType, Key: key, Data: data})
}

func (r *Recorder) Close() error { return nil }

// Types returns the event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType)
	}
	return types
}

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}
