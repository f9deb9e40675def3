package theme

import "charm.land/lipgloss/v2"

// Styles contains pre-built lipgloss styles for the TUI.
type Styles struct {
	HeaderTitle lipgloss.Style
	Muted       lipgloss.Style
}
