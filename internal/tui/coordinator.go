package tui

import (
	"time"

	tea "charm.land/bubbletea/v2"
)

// ActivityState is the coordinator's view of what the user is doing with
// the scroll region.
type ActivityState int

const (
	// IdleAtBottom means the user is not interacting and the viewport is
	// pinned at (or near) the end of content. New content auto-scrolls.
	IdleAtBottom ActivityState = iota
	// IdleAboveBottom means the user stopped interacting while scrolled up.
	// New content preserves the read position.
	IdleAboveBottom
	// ActiveScrolling means the user is interacting right now. The
	// coordinator never fights an in-progress manual scroll.
	ActiveScrolling
	// LockedToMessage means the user pinned the view to a specific message.
	// All automatic scrolling is suppressed until explicit unlock.
	LockedToMessage
)

// String returns a human-readable name for the activity state.
func (s ActivityState) String() string {
	switch s {
	case IdleAtBottom:
		return "idle-at-bottom"
	case IdleAboveBottom:
		return "idle-above-bottom"
	case ActiveScrolling:
		return "active-scrolling"
	case LockedToMessage:
		return "locked"
	default:
		return "unknown"
	}
}

// Graceful return modes.
const (
	ReturnAuto      = "auto"
	ReturnIndicator = "indicator"
)

// CoordinatorOptions configures the scroll coordinator. The zero value gets
// sensible defaults from withDefaults.
type CoordinatorOptions struct {
	IdleTimeout         time.Duration
	ActivityDebounce    time.Duration
	AutoScrollDelay     time.Duration
	GracefulReturnDelay time.Duration
	NearBottomLines     int
	VelocityThreshold   float64
	GracefulReturn      string
}

func (o CoordinatorOptions) withDefaults() CoordinatorOptions {
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 4000 * time.Millisecond
	}
	if o.ActivityDebounce <= 0 {
		o.ActivityDebounce = 100 * time.Millisecond
	}
	if o.AutoScrollDelay <= 0 {
		o.AutoScrollDelay = 200 * time.Millisecond
	}
	if o.GracefulReturnDelay <= 0 {
		o.GracefulReturnDelay = 1500 * time.Millisecond
	}
	if o.NearBottomLines <= 0 {
		o.NearBottomLines = 2
	}
	if o.VelocityThreshold <= 0 {
		o.VelocityThreshold = 6.0
	}
	if o.GracefulReturn != ReturnIndicator {
		o.GracefulReturn = ReturnAuto
	}
	return o
}

// Tick messages carry the scheduling coordinator and a generation number.
// The app fans tick traffic out to every tab, so a tick first has to match
// its owner; within the owner, scheduling a new tick bumps the generation,
// so a tick that arrives with a stale generation is a cancelled timer and
// must be ignored.
type autoScrollTickMsg struct {
	owner *Coordinator
	gen   uint64
}
type gracefulReturnTickMsg struct {
	owner *Coordinator
	gen   uint64
}
type idleTickMsg struct {
	owner *Coordinator
	gen   uint64
}

// Coordinator arbitrates between streaming content growth and the user's
// reading position. On every content change it decides whether to follow
// the conversation, hold still, or offer a delayed return to the bottom,
// based on activity, scroll geometry, and message locks.
//
// The coordinator never moves the viewport synchronously from an event
// handler. All scrolls go through scheduled ticks so that rapid token
// appends batch into one smooth scroll and newer events can cancel stale
// decisions.
type Coordinator struct {
	opts     CoordinatorOptions
	scroller Scroller
	tracker  *ActivityTracker
	locks    *LockManager
	velocity *VelocityEstimator
	clock    func() time.Time

	state      ActivityState
	returnHint bool

	autoScrollGen     uint64
	gracefulReturnGen uint64
	idleGen           uint64
}

// NewCoordinator creates a coordinator driving the given scroller.
func NewCoordinator(scroller Scroller, opts CoordinatorOptions) *Coordinator {
	opts = opts.withDefaults()
	return &Coordinator{
		opts:     opts,
		scroller: scroller,
		tracker:  NewActivityTracker(opts.IdleTimeout, opts.ActivityDebounce),
		locks:    NewLockManager(),
		velocity: NewVelocityEstimator(500 * time.Millisecond),
		clock:    time.Now,
		state:    IdleAtBottom,
	}
}

// State returns the current activity state.
func (c *Coordinator) State() ActivityState {
	return c.state
}

// IsLocked reports whether the view is pinned to a message.
func (c *Coordinator) IsLocked() bool {
	return c.locks.IsLocked()
}

// LockedID returns the pinned message ID, or "" when unlocked.
func (c *Coordinator) LockedID() string {
	return c.locks.LockedID()
}

// IsUserActive reports whether the user interacted within the idle timeout.
func (c *Coordinator) IsUserActive() bool {
	return c.tracker.IsUserActive(c.clock())
}

// ReturnHint reports whether the "new content below" indicator should be
// shown. Only set in indicator mode while idle above the bottom.
func (c *Coordinator) ReturnHint() bool {
	return c.returnHint
}

// RecordSignal feeds a user input signal into the coordinator. Any fresh
// signal cancels pending automatic scrolls. The returned command, when
// non-nil, schedules the idle re-derivation tick.
func (c *Coordinator) RecordSignal(kind SignalKind) tea.Cmd {
	now := c.clock()
	recompute := c.tracker.RecordSignal(kind, now)
	c.velocity.Observe(c.scroller.Snapshot(), now)

	if !recompute {
		return nil
	}

	// A fresh user signal supersedes any scheduled automatic scroll.
	c.autoScrollGen++
	c.gracefulReturnGen++

	c.recomputeState(now)
	return c.scheduleIdleTick(c.opts.IdleTimeout)
}

// HandleContentChange is invoked whenever the rendered transcript grows.
// It reads the latest activity state at decision time and schedules at most
// one scroll action.
func (c *Coordinator) HandleContentChange() tea.Cmd {
	now := c.clock()
	snapshot := c.scroller.Snapshot()
	c.velocity.Observe(snapshot, now)

	if !snapshot.Known {
		return nil
	}
	if c.locks.IsLocked() {
		// Streaming content must never yank the user off a pinned message.
		return nil
	}

	switch c.state {
	case IdleAtBottom:
		// Batch rapid token appends into one smooth scroll. Each content
		// change bumps the generation, so only the last scheduled tick
		// survives.
		c.autoScrollGen++
		gen := c.autoScrollGen
		return tea.Tick(c.opts.AutoScrollDelay, func(time.Time) tea.Msg {
			return autoScrollTickMsg{owner: c, gen: gen}
		})

	case IdleAboveBottom:
		if c.opts.GracefulReturn == ReturnIndicator {
			c.returnHint = true
			return nil
		}
		c.gracefulReturnGen++
		gen := c.gracefulReturnGen
		return tea.Tick(c.opts.GracefulReturnDelay, func(time.Time) tea.Msg {
			return gracefulReturnTickMsg{owner: c, gen: gen}
		})

	default:
		// ActiveScrolling. Never fight an in-progress manual scroll.
		return nil
	}
}

// Update processes the coordinator's own tick messages. Ticks scheduled by
// another coordinator or with a stale generation are ignored.
func (c *Coordinator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case autoScrollTickMsg:
		if msg.owner != c || msg.gen != c.autoScrollGen {
			return nil
		}
		if c.locks.IsLocked() || c.state != IdleAtBottom {
			return nil
		}
		c.scroller.ScrollToBottom(BehaviorSmooth)
		return nil

	case gracefulReturnTickMsg:
		if msg.owner != c || msg.gen != c.gracefulReturnGen {
			return nil
		}
		now := c.clock()
		if c.locks.IsLocked() || c.tracker.IsUserActive(now) || c.state != IdleAboveBottom {
			return nil
		}
		c.scroller.ScrollToBottom(BehaviorSmooth)
		c.state = IdleAtBottom
		c.returnHint = false
		return nil

	case idleTickMsg:
		if msg.owner != c || msg.gen != c.idleGen {
			return nil
		}
		now := c.clock()
		if c.tracker.IsUserActive(now) {
			// Debounced signals extended the deadline. Re-arm for the rest.
			remaining := c.tracker.IdleDeadline().Sub(now)
			return c.scheduleIdleTick(remaining)
		}
		c.recomputeState(now)
		return nil
	}
	return nil
}

// LockTo pins the view to a message. Locking never moves the scroll
// position; it only suppresses automatic scrolling.
func (c *Coordinator) LockTo(id string) {
	if id == "" {
		return
	}
	c.locks.Lock(id)
	c.state = LockedToMessage
	c.returnHint = false
	c.autoScrollGen++
	c.gracefulReturnGen++
}

// Unlock releases the message lock and re-derives state from the current
// geometry and activity. It does not assume the viewport is at the bottom.
func (c *Coordinator) Unlock() {
	c.locks.Unlock()
	c.recomputeState(c.clock())
}

// ScrollToBottomNow is the manual "jump to latest" trigger. It bypasses
// the delay machinery entirely.
func (c *Coordinator) ScrollToBottomNow() {
	c.autoScrollGen++
	c.gracefulReturnGen++
	c.scroller.ScrollToBottom(BehaviorImmediate)
	if !c.locks.IsLocked() {
		c.state = IdleAtBottom
	}
	c.returnHint = false
}

// Cancel invalidates all scheduled timers. Called on component teardown.
func (c *Coordinator) Cancel() {
	c.autoScrollGen++
	c.gracefulReturnGen++
	c.idleGen++
}

// recomputeState derives the activity state from the lock, the tracker,
// and the latest scroll geometry.
func (c *Coordinator) recomputeState(now time.Time) {
	if c.locks.IsLocked() {
		c.state = LockedToMessage
		return
	}

	snapshot := c.scroller.Snapshot()
	if !snapshot.Known {
		// Geometry unavailable. Defer the decision to the next event.
		return
	}

	if c.tracker.IsUserActive(now) {
		// Pointer drift over the transcript while pinned to the bottom is
		// not scrolling intent unless the offset is actually moving fast.
		_, kind := c.tracker.LastSignal()
		if kind == SignalMotion &&
			snapshot.AtBottom(c.opts.NearBottomLines) &&
			c.velocity.Velocity(now) < c.opts.VelocityThreshold {
			c.state = IdleAtBottom
			return
		}
		c.state = ActiveScrolling
		return
	}

	if snapshot.AtBottom(c.opts.NearBottomLines) {
		c.state = IdleAtBottom
		c.returnHint = false
	} else {
		c.state = IdleAboveBottom
	}
}

func (c *Coordinator) scheduleIdleTick(d time.Duration) tea.Cmd {
	if d <= 0 {
		d = time.Millisecond
	}
	c.idleGen++
	gen := c.idleGen
	return tea.Tick(d, func(time.Time) tea.Msg {
		return idleTickMsg{owner: c, gen: gen}
	})
}
