package application

import (
	"sync"
	"time"

	"sensor-cloud/internal/alerting/domain"
)

// Debouncer throttles notifications per (recipient, location, condition).
// Records live in process memory for the process lifetime; they are created
// lazily on the first successful send and only ever updated, never deleted.
// A restart resets all throttling windows.
type Debouncer struct {
	mu      sync.Mutex
	records map[string]time.Time
}

// NewDebouncer constructs an empty debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{records: make(map[string]time.Time)}
}

// ShouldSend reports whether a notification for the key is due: either no
// record exists yet, or at least frequency has elapsed since the last send.
// Calling ShouldSend repeatedly without an intervening MarkSent returns the
// same answer.
func (d *Debouncer) ShouldSend(recipientID, location string, kind domain.ConditionKind, frequency time.Duration, now time.Time) bool {
	if d == nil {
		return false
	}
	key := debounceKey(recipientID, location, kind)
	d.mu.Lock()
	lastSent, ok := d.records[key]
	d.mu.Unlock()
	if !ok {
		return true
	}
	return now.Sub(lastSent) >= frequency
}

// MarkSent records a successful send for the key. Callers must invoke it
// only after the text delivery succeeded, so a failed send stays eligible
// for retry on the next cycle.
func (d *Debouncer) MarkSent(recipientID, location string, kind domain.ConditionKind, now time.Time) {
	if d == nil {
		return
	}
	key := debounceKey(recipientID, location, kind)
	d.mu.Lock()
	d.records[key] = now
	d.mu.Unlock()
}

func debounceKey(recipientID, location string, kind domain.ConditionKind) string {
	return recipientID + "|" + location + "|" + string(kind)
}
