package tui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	uv "github.com/charmbracelet/ultraviolet"
)

// Tab bundles the per-tab components. Each tab owns an independent chat
// view, input, and send queue; closing the tab destroys all three.
type Tab struct {
	Session string
	View    *ChatView
	Input   *ChatInput

	inputRows int // rows last given to Input, to detect pill row changes
}

// TabSet is an ordered collection of chat tabs with one active tab.
type TabSet struct {
	tabs    []*Tab
	active  int
	barArea uv.Rectangle
}

// NewTabSet creates an empty tab set.
func NewTabSet() *TabSet {
	return &TabSet{}
}

// Add appends a tab and makes it active.
func (t *TabSet) Add(tab *Tab) {
	t.tabs = append(t.tabs, tab)
	t.active = len(t.tabs) - 1
}

// Close removes the tab at index i. The last remaining tab cannot be
// closed. Returns the removed tab so the caller can tear it down.
func (t *TabSet) Close(i int) *Tab {
	if len(t.tabs) <= 1 || i < 0 || i >= len(t.tabs) {
		return nil
	}

	closed := t.tabs[i]
	t.tabs = append(t.tabs[:i], t.tabs[i+1:]...)
	if t.active >= len(t.tabs) {
		t.active = len(t.tabs) - 1
	} else if t.active > i {
		t.active--
	}
	return closed
}

// CloseActive removes the active tab.
func (t *TabSet) CloseActive() *Tab {
	return t.Close(t.active)
}

// Next cycles to the following tab.
func (t *TabSet) Next() {
	if len(t.tabs) == 0 {
		return
	}
	t.active = (t.active + 1) % len(t.tabs)
}

// Prev cycles to the preceding tab.
func (t *TabSet) Prev() {
	if len(t.tabs) == 0 {
		return
	}
	t.active = (t.active - 1 + len(t.tabs)) % len(t.tabs)
}

// SetActive selects the tab at index i.
func (t *TabSet) SetActive(i int) {
	if i >= 0 && i < len(t.tabs) {
		t.active = i
	}
}

// Active returns the active tab, or nil when empty.
func (t *TabSet) Active() *Tab {
	if len(t.tabs) == 0 {
		return nil
	}
	return t.tabs[t.active]
}

// ActiveIndex returns the index of the active tab.
func (t *TabSet) ActiveIndex() int {
	return t.active
}

// Len returns the number of tabs.
func (t *TabSet) Len() int {
	return len(t.tabs)
}

// Tabs returns the ordered tabs.
func (t *TabSet) Tabs() []*Tab {
	return t.tabs
}

// Sessions returns the ordered session names, for UI state persistence.
func (t *TabSet) Sessions() []string {
	names := make([]string, len(t.tabs))
	for i, tab := range t.tabs {
		names[i] = tab.Session
	}
	return names
}

// Find returns the index of the tab for a session, or -1.
func (t *TabSet) Find(session string) int {
	for i, tab := range t.tabs {
		if tab.Session == session {
			return i
		}
	}
	return -1
}

// DrawBar renders the tab bar into the given one-row area.
func (t *TabSet) DrawBar(scr uv.Screen, area uv.Rectangle) {
	t.barArea = area

	var b strings.Builder
	for i, tab := range t.tabs {
		label := " " + tab.Session + " "
		if tab.Input.Queue().Len() > 0 {
			label = " " + tab.Session + " •"
		}
		if i == t.active {
			b.WriteString(styleTabActive.Render(label))
		} else {
			b.WriteString(styleTabInactive.Render(label))
		}
		b.WriteString(" ")
	}

	FillArea(scr, area, styleHeader)
	DrawText(scr, area, b.String())
}

// HandleClick selects the tab under the given screen coordinates. Returns
// true when a tab was hit.
func (t *TabSet) HandleClick(x, y int) bool {
	if y < t.barArea.Min.Y || y >= t.barArea.Max.Y {
		return false
	}

	col := t.barArea.Min.X
	for i, tab := range t.tabs {
		width := len(tab.Session) + 2
		if tab.Input.Queue().Len() > 0 {
			width += 2
		}
		if x >= col && x < col+width {
			t.active = i
			return true
		}
		col += width + 1
	}
	return false
}

// Update forwards a message to the active tab's components.
func (t *TabSet) Update(msg tea.Msg) tea.Cmd {
	tab := t.Active()
	if tab == nil {
		return nil
	}
	return tea.Batch(tab.View.Update(msg), tab.Input.Update(msg))
}
