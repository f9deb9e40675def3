package tui

// LineRange is a half-open [Start, End) range of content lines occupied by
// one message item.
type LineRange struct {
	Start int
	End   int
}

// Contains reports whether the line falls inside the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line < r.End
}

// ItemRegistry maps message item IDs to the content line ranges they occupy
// in the rendered transcript. It is rebuilt on every layout pass and used
// for click hit-testing and lock anchoring.
type ItemRegistry struct {
	ranges map[string]LineRange
	order  []string
}

// NewItemRegistry creates an empty registry.
func NewItemRegistry() *ItemRegistry {
	return &ItemRegistry{ranges: make(map[string]LineRange)}
}

// Clear drops all registered ranges, keeping allocations.
func (r *ItemRegistry) Clear() {
	for id := range r.ranges {
		delete(r.ranges, id)
	}
	r.order = r.order[:0]
}

// SetItemRange records the line range for an item. Re-registering an ID
// replaces its range.
func (r *ItemRegistry) SetItemRange(id string, start, end int) {
	if _, exists := r.ranges[id]; !exists {
		r.order = append(r.order, id)
	}
	r.ranges[id] = LineRange{Start: start, End: end}
}

// ItemAt returns the ID of the item covering the given content line, or ""
// when the line falls in a gap between items.
func (r *ItemRegistry) ItemAt(line int) string {
	for _, id := range r.order {
		if r.ranges[id].Contains(line) {
			return id
		}
	}
	return ""
}

// RangeFor returns the line range for an item ID. ok is false when the item
// is not registered, which happens when a locked message scrolled out of
// the rendered set or was removed.
func (r *ItemRegistry) RangeFor(id string) (LineRange, bool) {
	lr, ok := r.ranges[id]
	return lr, ok
}

// LockManager tracks which message, if any, the user has pinned the view to.
// While a lock is held, automatic scrolling is suppressed and layout changes
// keep the locked message's top line stationary on screen.
type LockManager struct {
	lockedID string
}

// NewLockManager creates an unlocked manager.
func NewLockManager() *LockManager {
	return &LockManager{}
}

// Lock pins the view to the given message. Locking a second message
// replaces the first; the last click wins.
func (m *LockManager) Lock(id string) {
	if id == "" {
		return
	}
	m.lockedID = id
}

// Unlock releases the current lock, if any.
func (m *LockManager) Unlock() {
	m.lockedID = ""
}

// IsLocked reports whether a message lock is held.
func (m *LockManager) IsLocked() bool {
	return m.lockedID != ""
}

// LockedID returns the pinned message ID, or "" when unlocked.
func (m *LockManager) LockedID() string {
	return m.lockedID
}

// Toggle locks the given message, or unlocks if it is already the locked
// one. Returns true when a lock is held afterwards.
func (m *LockManager) Toggle(id string) bool {
	if id == "" {
		return m.IsLocked()
	}
	if m.lockedID == id {
		m.lockedID = ""
		return false
	}
	m.lockedID = id
	return true
}
