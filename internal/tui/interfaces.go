package tui

import (
	tea "charm.land/bubbletea/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/driftlabs/driftline/internal/session"
)

// Component is the base contract for everything the app composites onto the
// screen: the chat transcript, the input box, the status bar. Draw paints
// into the given area and may return a cursor position for the terminal.
type Component interface {
	Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor
	Update(tea.Msg) tea.Cmd
}

// Sizable components are told their dimensions on terminal resize, before
// the next Draw.
type Sizable interface {
	SetSize(width, height int)
}

// Focusable components route keyboard input only while focused.
type Focusable interface {
	SetFocus(focused bool)
	IsFocused() bool
}

// Stateful components re-render from the reduced session state whenever a
// new event arrives.
type Stateful interface {
	SetState(state *session.State)
}

// FullComponent is a sized, state-driven component. The status bar and the
// per-tab chat surfaces satisfy it.
type FullComponent interface {
	Component
	Sizable
	Stateful
}

// FocusableComponent is a FullComponent that participates in focus cycling.
type FocusableComponent interface {
	FullComponent
	Focusable
}
