package application

import (
	"sync"

	"sensor-cloud/internal/alerting/domain"
)

// StatusTracker remembers the previous connectivity status per location and
// turns consecutive classifications into transitions. The map is guarded so
// the tracker stays correct even when cycles run on separate goroutines.
type StatusTracker struct {
	mu       sync.Mutex
	previous map[string]domain.Status
}

// NewStatusTracker constructs a tracker with no observed locations.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{previous: make(map[string]domain.Status)}
}

// Observe records the current status for a location and returns the
// transition relative to the previous cycle. The stored status is overwritten
// unconditionally. A location seen for the first time reports no transition.
func (t *StatusTracker) Observe(location string, current domain.Status) domain.Transition {
	if t == nil {
		return domain.TransitionNone
	}
	t.mu.Lock()
	previous, ok := t.previous[location]
	if !ok {
		previous = domain.StatusUnknown
	}
	t.previous[location] = current
	t.mu.Unlock()
	return domain.DetectTransition(previous, current)
}

// Status returns the last recorded status for a location.
func (t *StatusTracker) Status(location string) domain.Status {
	if t == nil {
		return domain.StatusUnknown
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	status, ok := t.previous[location]
	if !ok {
		return domain.StatusUnknown
	}
	return status
}
