package tui

import "time"

// ScrollBehavior selects how a programmatic scroll is performed.
type ScrollBehavior int

const (
	// BehaviorImmediate jumps to the target position in one step.
	BehaviorImmediate ScrollBehavior = iota
	// BehaviorSmooth glides toward the target over several frames. The
	// glide is cancelled by any user scroll input.
	BehaviorSmooth
)

// ScrollSnapshot captures the scroll geometry of a viewport at one instant.
// Known is false when the viewport has not laid out content yet, in which
// case the other fields are meaningless.
type ScrollSnapshot struct {
	Top          int
	TotalLines   int
	VisibleLines int
	Known        bool
}

// DistanceFromBottom returns how many lines of content remain below the
// visible window. Zero means the viewport is pinned to the end.
func (s ScrollSnapshot) DistanceFromBottom() int {
	if !s.Known {
		return 0
	}
	d := s.TotalLines - s.VisibleLines - s.Top
	if d < 0 {
		return 0
	}
	return d
}

// AtBottom reports whether the viewport is within nearLines of the end.
// Content shorter than the viewport always counts as at-bottom.
func (s ScrollSnapshot) AtBottom(nearLines int) bool {
	if !s.Known {
		return false
	}
	if s.TotalLines <= s.VisibleLines {
		return true
	}
	return s.DistanceFromBottom() <= nearLines
}

// Scroller is the viewport surface the coordinator drives. ChatView
// implements it over a bubbles viewport.
type Scroller interface {
	// Snapshot returns the current scroll geometry.
	Snapshot() ScrollSnapshot
	// ScrollToBottom moves the viewport to the end of content.
	ScrollToBottom(behavior ScrollBehavior)
	// ScrollToOffset moves the viewport so the given line is at the top.
	ScrollToOffset(top int, behavior ScrollBehavior)
}

type velocitySample struct {
	at    time.Time
	top   int
	total int
}

// VelocityEstimator estimates user scroll speed in lines per second from a
// short sliding window of geometry observations.
//
// Only movement of the top offset with stable total content counts as user
// scrolling. When the total line count changes in the same observation the
// offset shift is attributed to content reflow and ignored.
type VelocityEstimator struct {
	window  time.Duration
	samples []velocitySample
	moved   float64
}

// NewVelocityEstimator creates an estimator with the given sliding window.
func NewVelocityEstimator(window time.Duration) *VelocityEstimator {
	return &VelocityEstimator{window: window}
}

// Observe records a geometry observation at now.
func (v *VelocityEstimator) Observe(snap ScrollSnapshot, now time.Time) {
	if !snap.Known {
		return
	}

	sample := velocitySample{at: now, top: snap.Top, total: snap.TotalLines}
	if n := len(v.samples); n > 0 {
		prev := v.samples[n-1]
		if snap.TotalLines == prev.total {
			delta := snap.Top - prev.top
			if delta < 0 {
				delta = -delta
			}
			v.moved += float64(delta)
		}
	}
	v.samples = append(v.samples, sample)
	v.prune(now)
}

// Velocity returns the estimated user scroll speed in lines per second over
// the sliding window ending at now.
func (v *VelocityEstimator) Velocity(now time.Time) float64 {
	v.prune(now)
	if len(v.samples) < 2 {
		return 0
	}
	span := v.samples[len(v.samples)-1].at.Sub(v.samples[0].at)
	if span <= 0 {
		return 0
	}
	return v.moved / span.Seconds()
}

// Reset drops all recorded samples.
func (v *VelocityEstimator) Reset() {
	v.samples = v.samples[:0]
	v.moved = 0
}

// prune drops samples that fell out of the window, subtracting the movement
// they contributed.
func (v *VelocityEstimator) prune(now time.Time) {
	cutoff := now.Add(-v.window)
	i := 0
	for i < len(v.samples) && v.samples[i].at.Before(cutoff) {
		if i+1 < len(v.samples) {
			next := v.samples[i+1]
			if next.total == v.samples[i].total {
				delta := next.top - v.samples[i].top
				if delta < 0 {
					delta = -delta
				}
				v.moved -= float64(delta)
			}
		}
		i++
	}
	if i > 0 {
		v.samples = v.samples[i:]
		if len(v.samples) < 2 {
			v.moved = 0
		}
		if v.moved < 0 {
			v.moved = 0
		}
	}
}
