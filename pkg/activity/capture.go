package activity

import (
	"context"
	"slices"
	"sync"
)

// CaptureHook keeps every event it receives, for tests and examples. Err, when
// set, is returned from Notify after the event is recorded.
type CaptureHook struct {
	Err error

	mu     sync.Mutex
	events []Event
}

// Notify implements Hook.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	h.events = append(h.events, event.Normalize())
	h.mu.Unlock()
	return h.Err
}

// Events returns a copy of the recorded events in arrival order.
func (h *CaptureHook) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.events)
}

// Verbs returns the verbs of the recorded events in arrival order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	verbs := make([]string, len(h.events))
	for i, event := range h.events {
		verbs[i] = event.Verb
	}
	return verbs
}

// Reset drops the recorded events.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	h.events = nil
	h.mu.Unlock()
}
