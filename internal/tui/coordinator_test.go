package tui

import (
	"testing"
	"time"
)

type fakeScroller struct {
	snapshot ScrollSnapshot
	toBottom []ScrollBehavior
	toOffset []int
}

func (f *fakeScroller) Snapshot() ScrollSnapshot {
	return f.snapshot
}

func (f *fakeScroller) ScrollToBottom(behavior ScrollBehavior) {
	f.toBottom = append(f.toBottom, behavior)
	top := f.snapshot.TotalLines - f.snapshot.VisibleLines
	if top < 0 {
		top = 0
	}
	f.snapshot.Top = top
}

func (f *fakeScroller) ScrollToOffset(top int, behavior ScrollBehavior) {
	f.toOffset = append(f.toOffset, top)
	f.snapshot.Top = top
}

// newTestCoordinator returns a coordinator with a manual clock. Advance the
// clock by reassigning *now.
func newTestCoordinator(scroller Scroller, opts CoordinatorOptions) (*Coordinator, *time.Time) {
	c := NewCoordinator(scroller, opts)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	c.clock = func() time.Time { return now }
	return c, &now
}

func TestCoordinatorDefaults(t *testing.T) {
	c, _ := newTestCoordinator(&fakeScroller{}, CoordinatorOptions{})

	if c.opts.IdleTimeout != 4000*time.Millisecond {
		t.Errorf("IdleTimeout = %v, want 4s", c.opts.IdleTimeout)
	}
	if c.opts.ActivityDebounce != 100*time.Millisecond {
		t.Errorf("ActivityDebounce = %v, want 100ms", c.opts.ActivityDebounce)
	}
	if c.opts.AutoScrollDelay != 200*time.Millisecond {
		t.Errorf("AutoScrollDelay = %v, want 200ms", c.opts.AutoScrollDelay)
	}
	if c.opts.GracefulReturnDelay != 1500*time.Millisecond {
		t.Errorf("GracefulReturnDelay = %v, want 1.5s", c.opts.GracefulReturnDelay)
	}
	if c.opts.NearBottomLines != 2 {
		t.Errorf("NearBottomLines = %d, want 2", c.opts.NearBottomLines)
	}
	if c.opts.VelocityThreshold != 6.0 {
		t.Errorf("VelocityThreshold = %f, want 6.0", c.opts.VelocityThreshold)
	}
	if c.opts.GracefulReturn != ReturnAuto {
		t.Errorf("GracefulReturn = %q, want auto", c.opts.GracefulReturn)
	}
	if c.State() != IdleAtBottom {
		t.Errorf("initial state = %v, want idle-at-bottom", c.State())
	}
}

func TestBottomFollow(t *testing.T) {
	scroller := &fakeScroller{snapshot: snap(60, 100, 40)}
	c, _ := newTestCoordinator(scroller, CoordinatorOptions{})

	cmd := c.HandleContentChange()
	if cmd == nil {
		t.Fatal("expected a scheduled auto-scroll command")
	}
	if len(scroller.toBottom) != 0 {
		t.Fatal("expected no scroll before the delay elapses")
	}

	c.Update(autoScrollTickMsg{owner: c, gen: c.autoScrollGen})
	if len(scroller.toBottom) != 1 {
		t.Fatalf("got %d scroll calls, want 1", len(scroller.toBottom))
	}
	if scroller.toBottom[0] != BehaviorSmooth {
		t.Error("expected a smooth scroll")
	}
}

func TestContentChangeBatching(t *testing.T) {
	scroller := &fakeScroller{snapshot: snap(60, 100, 40)}
	c, now := newTestCoordinator(scroller, CoordinatorOptions{})

	// 50 token appends within 300ms schedule 50 ticks, but each one
	// invalidates the previous generation.
	var gens []uint64
	for i := 0; i < 50; i++ {
		*now = now.Add(6 * time.Millisecond)
		scroller.snapshot.TotalLines++
		if cmd := c.HandleContentChange(); cmd == nil {
			t.Fatal("expected a scheduled command for each content change")
		}
		gens = append(gens, c.autoScrollGen)
	}

	for _, gen := range gens[:len(gens)-1] {
		c.Update(autoScrollTickMsg{owner: c, gen: gen})
	}
	if len(scroller.toBottom) != 0 {
		t.Fatalf("stale ticks caused %d scrolls, want 0", len(scroller.toBottom))
	}

	c.Update(autoScrollTickMsg{owner: c, gen: gens[len(gens)-1]})
	if len(scroller.toBottom) != 1 {
		t.Fatalf("got %d scroll calls, want exactly 1", len(scroller.toBottom))
	}
}

func TestNoFightDuringActiveScroll(t *testing.T) {
	scroller := &fakeScroller{snapshot: snap(20, 100, 40)}
	c, _ := newTestCoordinator(scroller, CoordinatorOptions{})

	c.RecordSignal(SignalWheel)
	if c.State() != ActiveScrolling {
		t.Fatalf("state = %v, want active-scrolling", c.State())
	}

	if cmd := c.HandleContentChange(); cmd != nil {
		t.Error("expected no scheduled command while actively scrolling")
	}
	if len(scroller.toBottom) != 0 || len(scroller.toOffset) != 0 {
		t.Error("expected zero scroll calls while actively scrolling")
	}
}

func TestNoYankWhileLocked(t *testing.T) {
	scroller := &fakeScroller{snapshot: snap(60, 100, 40)}
	c, now := newTestCoordinator(scroller, CoordinatorOptions{})

	pendingGen := uint64(0)
	if cmd := c.HandleContentChange(); cmd != nil {
		pendingGen = c.autoScrollGen
	}

	c.LockTo("m42")
	if c.State() != LockedToMessage {
		t.Fatalf("state = %v, want locked", c.State())
	}
	if got := c.LockedID(); got != "m42" {
		t.Fatalf("LockedID() = %q, want m42", got)
	}

	// The auto-scroll scheduled before the lock must not fire.
	c.Update(autoScrollTickMsg{owner: c, gen: pendingGen})

	for i := 0; i < 10; i++ {
		*now = now.Add(50 * time.Millisecond)
		scroller.snapshot.TotalLines += 5
		if cmd := c.HandleContentChange(); cmd != nil {
			t.Fatal("expected no scheduled command while locked")
		}
	}

	if len(scroller.toBottom) != 0 || len(scroller.toOffset) != 0 {
		t.Error("expected zero scroll calls while locked")
	}
}

func TestUnlockRederivesState(t *testing.T) {
	scroller := &fakeScroller{snapshot: snap(10, 100, 40)}
	c, _ := newTestCoordinator(scroller, CoordinatorOptions{})

	c.LockTo("m42")
	c.Unlock()

	if c.IsLocked() {
		t.Fatal("expected unlocked")
	}
	if c.State() != IdleAboveBottom {
		t.Errorf("state = %v, want idle-above-bottom from geometry", c.State())
	}
	if len(scroller.toBottom) != 0 {
		t.Error("unlock must not move the scroll position")
	}
}

func TestLockRetargetsLastClickWins(t *testing.T) {
	c, _ := newTestCoordinator(&fakeScroller{snapshot: snap(0, 100, 40)}, CoordinatorOptions{})

	c.LockTo("m1")
	c.LockTo("m2")
	if got := c.LockedID(); got != "m2" {
		t.Errorf("LockedID() = %q, want m2", got)
	}
}

func TestIdleTransitionAndGracefulReturn(t *testing.T) {
	scroller := &fakeScroller{snapshot: snap(20, 100, 40)}
	c, now := newTestCoordinator(scroller, CoordinatorOptions{})

	c.RecordSignal(SignalWheel)
	if c.State() != ActiveScrolling {
		t.Fatalf("state = %v, want active-scrolling", c.State())
	}

	// Idle timeout elapses while scrolled up.
	*now = now.Add(4100 * time.Millisecond)
	c.Update(idleTickMsg{owner: c, gen: c.idleGen})
	if c.State() != IdleAboveBottom {
		t.Fatalf("state = %v, want idle-above-bottom", c.State())
	}

	// New content does not move the viewport immediately.
	scroller.snapshot.TotalLines += 10
	cmd := c.HandleContentChange()
	if cmd == nil {
		t.Fatal("expected a scheduled graceful return")
	}
	if len(scroller.toBottom) != 0 {
		t.Fatal("expected no immediate scroll above the bottom")
	}

	// After the graceful return delay the viewport returns to the bottom.
	*now = now.Add(1600 * time.Millisecond)
	c.Update(gracefulReturnTickMsg{owner: c, gen: c.gracefulReturnGen})
	if len(scroller.toBottom) != 1 {
		t.Fatalf("got %d scroll calls, want 1", len(scroller.toBottom))
	}
	if c.State() != IdleAtBottom {
		t.Errorf("state = %v, want idle-at-bottom after return", c.State())
	}
}

func TestGracefulReturnAbortedByActivity(t *testing.T) {
	scroller := &fakeScroller{snapshot: snap(20, 100, 40)}
	c, now := newTestCoordinator(scroller, CoordinatorOptions{})

	c.RecordSignal(SignalWheel)
	*now = now.Add(4100 * time.Millisecond)
	c.Update(idleTickMsg{owner: c, gen: c.idleGen})

	c.HandleContentChange()
	gen := c.gracefulReturnGen

	// The user scrolls again before the return fires.
	*now = now.Add(500 * time.Millisecond)
	c.RecordSignal(SignalWheel)

	*now = now.Add(1100 * time.Millisecond)
	c.Update(gracefulReturnTickMsg{owner: c, gen: gen})
	if len(scroller.toBottom) != 0 {
		t.Error("expected the cancelled graceful return not to scroll")
	}
}

func TestUserSignalCancelsScheduledAutoScroll(t *testing.T) {
	scroller := &fakeScroller{snapshot: snap(60, 100, 40)}
	c, _ := newTestCoordinator(scroller, CoordinatorOptions{})

	c.HandleContentChange()
	gen := c.autoScrollGen

	c.RecordSignal(SignalWheel)

	c.Update(autoScrollTickMsg{owner: c, gen: gen})
	if len(scroller.toBottom) != 0 {
		t.Error("expected user activity to cancel the scheduled auto-scroll")
	}
}

func TestIndicatorModeShowsHintInsteadOfScrolling(t *testing.T) {
	scroller := &fakeScroller{snapshot: snap(20, 100, 40)}
	c, now := newTestCoordinator(scroller, CoordinatorOptions{GracefulReturn: ReturnIndicator})

	c.RecordSignal(SignalWheel)
	*now = now.Add(4100 * time.Millisecond)
	c.Update(idleTickMsg{owner: c, gen: c.idleGen})

	if cmd := c.HandleContentChange(); cmd != nil {
		t.Error("expected no scheduled command in indicator mode")
	}
	if !c.ReturnHint() {
		t.Error("expected the return hint to be shown")
	}

	c.ScrollToBottomNow()
	if c.ReturnHint() {
		t.Error("expected the hint to clear after jumping to the bottom")
	}
	if len(scroller.toBottom) != 1 || scroller.toBottom[0] != BehaviorImmediate {
		t.Errorf("toBottom = %v, want one immediate scroll", scroller.toBottom)
	}
	if c.State() != IdleAtBottom {
		t.Errorf("state = %v, want idle-at-bottom", c.State())
	}
}

func TestUnknownGeometryDefersDecision(t *testing.T) {
	scroller := &fakeScroller{}
	c, _ := newTestCoordinator(scroller, CoordinatorOptions{})

	if cmd := c.HandleContentChange(); cmd != nil {
		t.Error("expected no command with unknown geometry")
	}
	if len(scroller.toBottom) != 0 {
		t.Error("expected no scroll with unknown geometry")
	}
}

func TestIdleTickReArmsWhileStillActive(t *testing.T) {
	scroller := &fakeScroller{snapshot: snap(20, 100, 40)}
	c, now := newTestCoordinator(scroller, CoordinatorOptions{})

	c.RecordSignal(SignalWheel)
	// A debounced signal extends the idle deadline without a new tick.
	*now = now.Add(50 * time.Millisecond)
	c.RecordSignal(SignalWheel)

	// The original tick fires at the old deadline while the user is still
	// considered active; it must re-arm instead of flipping to idle.
	*now = now.Add(3960 * time.Millisecond)
	cmd := c.Update(idleTickMsg{owner: c, gen: c.idleGen})
	if cmd == nil {
		t.Fatal("expected the idle tick to re-arm")
	}
	if c.State() != ActiveScrolling {
		t.Errorf("state = %v, want still active-scrolling", c.State())
	}

	*now = now.Add(100 * time.Millisecond)
	c.Update(idleTickMsg{owner: c, gen: c.idleGen})
	if c.State() != IdleAboveBottom {
		t.Errorf("state = %v, want idle-above-bottom", c.State())
	}
}

func TestPointerMotionAtBottomIsNotScrollingIntent(t *testing.T) {
	scroller := &fakeScroller{snapshot: snap(60, 100, 40)}
	c, _ := newTestCoordinator(scroller, CoordinatorOptions{})

	c.RecordSignal(SignalMotion)
	if c.State() != IdleAtBottom {
		t.Errorf("state = %v, want idle-at-bottom for slow pointer motion", c.State())
	}

	// The same motion signal while scrolled up does count as activity.
	scroller.snapshot.Top = 20
	c2, _ := newTestCoordinator(scroller, CoordinatorOptions{})
	c2.RecordSignal(SignalMotion)
	if c2.State() != ActiveScrolling {
		t.Errorf("state = %v, want active-scrolling above the bottom", c2.State())
	}
}

func TestTicksFromAnotherCoordinatorAreIgnored(t *testing.T) {
	// Tick traffic fans out to every tab, and two coordinators easily hold
	// colliding generation numbers. One tab's timer must never fire
	// another tab's pending scroll.
	scrollerA := &fakeScroller{snapshot: snap(20, 100, 40)}
	a, nowA := newTestCoordinator(scrollerA, CoordinatorOptions{})
	scrollerB := &fakeScroller{snapshot: snap(20, 100, 40)}
	b, nowB := newTestCoordinator(scrollerB, CoordinatorOptions{})

	for _, c := range []*Coordinator{a, b} {
		now := nowA
		if c == b {
			now = nowB
		}
		c.RecordSignal(SignalWheel)
		*now = now.Add(4100 * time.Millisecond)
		c.Update(idleTickMsg{owner: c, gen: c.idleGen})
		if c.State() != IdleAboveBottom {
			t.Fatalf("state = %v, want idle-above-bottom", c.State())
		}
		c.HandleContentChange()
	}
	if a.gracefulReturnGen != b.gracefulReturnGen {
		t.Fatal("test setup should produce colliding generations")
	}

	// A's timer elapses and its tick is delivered to both coordinators.
	// B's own delay has not elapsed, so B must not move.
	*nowA = nowA.Add(1600 * time.Millisecond)
	tick := gracefulReturnTickMsg{owner: a, gen: a.gracefulReturnGen}
	a.Update(tick)
	b.Update(tick)

	if len(scrollerA.toBottom) != 1 {
		t.Errorf("owner got %d scroll calls, want 1", len(scrollerA.toBottom))
	}
	if len(scrollerB.toBottom) != 0 {
		t.Errorf("foreign coordinator got %d scroll calls, want 0", len(scrollerB.toBottom))
	}
	if b.State() != IdleAboveBottom {
		t.Errorf("foreign state = %v, want unchanged idle-above-bottom", b.State())
	}

	// The same holds for auto-scroll ticks at the bottom.
	scrollerB.snapshot = snap(60, 100, 40)
	*nowB = nowB.Add(5 * time.Second)
	b.Update(idleTickMsg{owner: b, gen: b.idleGen})
	b.HandleContentChange()
	b.Update(autoScrollTickMsg{owner: a, gen: b.autoScrollGen})
	if len(scrollerB.toBottom) != 0 {
		t.Error("expected a foreign auto-scroll tick to be ignored")
	}
}

func TestCancelInvalidatesAllTimers(t *testing.T) {
	scroller := &fakeScroller{snapshot: snap(60, 100, 40)}
	c, _ := newTestCoordinator(scroller, CoordinatorOptions{})

	c.HandleContentChange()
	gen := c.autoScrollGen
	c.Cancel()

	c.Update(autoScrollTickMsg{owner: c, gen: gen})
	if len(scroller.toBottom) != 0 {
		t.Error("expected no scroll after Cancel")
	}
}
