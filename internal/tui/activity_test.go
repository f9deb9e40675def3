package tui

import (
	"testing"
	"time"
)

func TestActivityTrackerIdleByDefault(t *testing.T) {
	tracker := NewActivityTracker(4*time.Second, 100*time.Millisecond)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	if tracker.IsUserActive(now) {
		t.Error("expected new tracker to be idle")
	}
	if !tracker.IdleDeadline().IsZero() {
		t.Error("expected zero idle deadline before any signal")
	}
}

func TestActivityTrackerActiveAfterSignal(t *testing.T) {
	tracker := NewActivityTracker(4*time.Second, 100*time.Millisecond)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	if !tracker.RecordSignal(SignalWheel, now) {
		t.Error("expected first signal to request a recompute")
	}

	if !tracker.IsUserActive(now.Add(3 * time.Second)) {
		t.Error("expected active within idle timeout")
	}
	if tracker.IsUserActive(now.Add(4 * time.Second)) {
		t.Error("expected idle once the timeout elapses")
	}
}

func TestActivityTrackerDebounce(t *testing.T) {
	tracker := NewActivityTracker(4*time.Second, 100*time.Millisecond)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	if !tracker.RecordSignal(SignalWheel, now) {
		t.Error("expected first signal to request a recompute")
	}
	if tracker.RecordSignal(SignalWheel, now.Add(30*time.Millisecond)) {
		t.Error("expected signal inside debounce window to be coalesced")
	}
	if tracker.RecordSignal(SignalKey, now.Add(90*time.Millisecond)) {
		t.Error("expected signal inside debounce window to be coalesced")
	}
	if !tracker.RecordSignal(SignalWheel, now.Add(150*time.Millisecond)) {
		t.Error("expected signal after debounce window to request a recompute")
	}
}

func TestActivityTrackerDebouncedSignalsExtendIdleDeadline(t *testing.T) {
	tracker := NewActivityTracker(4*time.Second, 100*time.Millisecond)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	tracker.RecordSignal(SignalWheel, now)
	tracker.RecordSignal(SignalWheel, now.Add(50*time.Millisecond))

	want := now.Add(50 * time.Millisecond).Add(4 * time.Second)
	if got := tracker.IdleDeadline(); !got.Equal(want) {
		t.Errorf("IdleDeadline() = %v, want %v", got, want)
	}
}

func TestActivityTrackerLastSignal(t *testing.T) {
	tracker := NewActivityTracker(4*time.Second, 100*time.Millisecond)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	tracker.RecordSignal(SignalWheel, now)
	tracker.RecordSignal(SignalClick, now.Add(10*time.Millisecond))

	at, kind := tracker.LastSignal()
	if !at.Equal(now.Add(10 * time.Millisecond)) {
		t.Errorf("LastSignal() time = %v", at)
	}
	if kind != SignalClick {
		t.Errorf("LastSignal() kind = %v, want click", kind)
	}
}

func TestActivityTrackerReset(t *testing.T) {
	tracker := NewActivityTracker(4*time.Second, 100*time.Millisecond)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	tracker.RecordSignal(SignalWheel, now)
	tracker.Reset()

	if tracker.IsUserActive(now) {
		t.Error("expected tracker to be idle after reset")
	}
	if !tracker.RecordSignal(SignalWheel, now.Add(time.Millisecond)) {
		t.Error("expected first signal after reset to request a recompute")
	}
}

func TestSignalKindString(t *testing.T) {
	cases := map[SignalKind]string{
		SignalKey:      "key",
		SignalWheel:    "wheel",
		SignalClick:    "click",
		SignalMotion:   "motion",
		SignalKind(99): "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("SignalKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
