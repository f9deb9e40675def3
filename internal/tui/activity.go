package tui

import "time"

// SignalKind classifies a user input signal observed by the activity tracker.
type SignalKind int

const (
	SignalKey SignalKind = iota
	SignalWheel
	SignalClick
	SignalMotion
)

// String returns a human-readable name for the signal kind.
func (k SignalKind) String() string {
	switch k {
	case SignalKey:
		return "key"
	case SignalWheel:
		return "wheel"
	case SignalClick:
		return "click"
	case SignalMotion:
		return "motion"
	default:
		return "unknown"
	}
}

// ActivityTracker tracks whether the user is actively interacting with the
// scroll area. Activity decays after an idle timeout with no signals.
//
// Signals arriving within the debounce window of the previous one are
// recorded (they extend the idle deadline) but do not ask the caller to
// recompute state again. All methods take explicit times so callers can
// drive the tracker from a test clock.
type ActivityTracker struct {
	idleTimeout time.Duration
	debounce    time.Duration

	lastSignal     time.Time
	lastSignalKind SignalKind
	lastRecompute  time.Time
}

// NewActivityTracker creates a tracker with the given idle timeout and
// debounce window.
func NewActivityTracker(idleTimeout, debounce time.Duration) *ActivityTracker {
	return &ActivityTracker{
		idleTimeout: idleTimeout,
		debounce:    debounce,
	}
}

// RecordSignal records a user input signal at now. It returns true when the
// caller should recompute derived state, which happens for the first signal
// in each debounce window. Later signals inside the window still refresh
// the idle deadline.
func (t *ActivityTracker) RecordSignal(kind SignalKind, now time.Time) bool {
	t.lastSignal = now
	t.lastSignalKind = kind

	if !t.lastRecompute.IsZero() && now.Sub(t.lastRecompute) < t.debounce {
		return false
	}
	t.lastRecompute = now
	return true
}

// IsUserActive reports whether a signal arrived within the idle timeout.
func (t *ActivityTracker) IsUserActive(now time.Time) bool {
	if t.lastSignal.IsZero() {
		return false
	}
	return now.Sub(t.lastSignal) < t.idleTimeout
}

// LastSignal returns the time and kind of the most recent signal. The zero
// time means no signal has been recorded yet.
func (t *ActivityTracker) LastSignal() (time.Time, SignalKind) {
	return t.lastSignal, t.lastSignalKind
}

// IdleDeadline returns when the tracker will report idle, assuming no
// further signals arrive. The zero time means no signal has been recorded.
func (t *ActivityTracker) IdleDeadline() time.Time {
	if t.lastSignal.IsZero() {
		return time.Time{}
	}
	return t.lastSignal.Add(t.idleTimeout)
}

// Reset clears all recorded activity.
func (t *ActivityTracker) Reset() {
	t.lastSignal = time.Time{}
	t.lastRecompute = time.Time{}
}
