package domain

import "time"

// OfflineThreshold is how stale a last-seen timestamp may be before the
// location counts as offline.
const OfflineThreshold = 10 * time.Minute

// Status is a location's connectivity classification.
type Status int

const (
	// StatusUnknown is the state before the first observation. It exists so
	// that the first classification of a location never produces a
	// transition, instead of relying on a missing map entry comparing
	// unequal to everything.
	StatusUnknown Status = iota
	StatusOnline
	StatusOffline
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Transition is a change between two consecutive classifications.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionWentOffline
	TransitionWentOnline
)

// String returns the transition name.
func (t Transition) String() string {
	switch t {
	case TransitionWentOffline:
		return "went_offline"
	case TransitionWentOnline:
		return "went_online"
	default:
		return "none"
	}
}

// ClassifyStatus derives the connectivity status from a last-seen timestamp.
// A location is online iff the timestamp is set and younger than
// OfflineThreshold.
func ClassifyStatus(lastSeen, now time.Time) Status {
	if lastSeen.IsZero() {
		return StatusOffline
	}
	if now.Sub(lastSeen) < OfflineThreshold {
		return StatusOnline
	}
	return StatusOffline
}

// DetectTransition returns the edge between the previous and current status.
// An unknown previous status yields no transition regardless of the current
// one, so a freshly started process does not announce a spurious edge.
func DetectTransition(previous, current Status) Transition {
	switch {
	case previous == StatusUnknown:
		return TransitionNone
	case previous == StatusOnline && current == StatusOffline:
		return TransitionWentOffline
	case previous == StatusOffline && current == StatusOnline:
		return TransitionWentOnline
	default:
		return TransitionNone
	}
}
