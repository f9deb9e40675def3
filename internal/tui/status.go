package tui

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/driftlabs/driftline/internal/session"
)

// StatusBar displays session info (left) and agent/queue/connection status
// (right).
type StatusBar struct {
	width       int
	height      int
	sessionName string
	state       *session.State
	connected   bool
	queueDepth  int
	queuePaused bool
	ticking     bool // Whether the spinner tick chain has been started
	spinner     Spinner
}

// Compile-time interface checks
var _ FullComponent = (*StatusBar)(nil)

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(sessionName string) *StatusBar {
	return &StatusBar{
		sessionName: sessionName,
		spinner:     NewDefaultSpinner(),
	}
}

// Draw renders the status bar.
// Format: driftline | session | 2 online     [spinner] 3 queued ● connected
func (s *StatusBar) Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor {
	if area.Dx() <= 0 || area.Dy() <= 0 {
		return nil
	}

	left := s.buildLeft()
	right := s.buildRight()

	totalWidth := area.Dx() - 2
	padding := totalWidth - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	spacer := ""
	for i := 0; i < padding; i++ {
		spacer += " "
	}

	DrawStyled(scr, area, styleStatusBar, left+spacer+right)
	return nil
}

// buildLeft builds the left side with session info.
func (s *StatusBar) buildLeft() string {
	title := styleHeaderTitle.Render("driftline")
	sep := styleHeaderSeparator.Render(" | ")
	left := title + sep + styleHeaderInfo.Render(truncateString(s.sessionName, 24))

	if online := s.onlineCount(); online > 1 {
		left += sep + styleHeaderInfo.Render(fmt.Sprintf("%d online", online))
	}

	return left
}

// buildRight builds the right side with agent, queue, and connection status.
func (s *StatusBar) buildRight() string {
	var right string

	if s.working() {
		right += s.spinner.View() + " "
	}

	if s.queueDepth > 0 {
		badge := fmt.Sprintf(" %d queued ", s.queueDepth)
		if s.queuePaused {
			right += styleQueuePillPaused.Render(" ⏸"+badge) + " "
		} else {
			right += styleQueueBadge.Render(badge) + " "
		}
	}

	right += s.connectionStatus()
	return right
}

// SetSize updates the component dimensions.
func (s *StatusBar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// SetSession updates the session name shown on the left, for tab switches.
func (s *StatusBar) SetSession(name string) {
	s.sessionName = name
}

// SetState updates the session state.
func (s *StatusBar) SetState(state *session.State) {
	s.state = state
	if !s.working() {
		s.ticking = false
	}
}

// SetConnectionStatus updates the connection indicator.
func (s *StatusBar) SetConnectionStatus(connected bool) {
	s.connected = connected
}

// SetQueueStatus updates the queue depth badge.
func (s *StatusBar) SetQueueStatus(depth int, paused bool) {
	s.queueDepth = depth
	s.queuePaused = paused
}

// Update handles messages and spinner animation.
func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if !s.working() {
		return nil
	}

	if cmd := s.spinner.Update(msg); cmd != nil {
		return cmd
	}

	// Start the tick chain once when the agent becomes busy.
	if !s.ticking {
		s.ticking = true
		return s.spinner.Tick()
	}

	return nil
}

func (s *StatusBar) working() bool {
	return s.state != nil && s.state.AgentBusy
}

func (s *StatusBar) onlineCount() int {
	if s.state == nil {
		return 0
	}
	n := 0
	for _, p := range s.state.Participants {
		if p.Online {
			n++
		}
	}
	return n
}

// connectionStatus returns the connection indicator.
// ● = connected, ○ = disconnected. Dot only when narrow.
func (s *StatusBar) connectionStatus() string {
	if s.width > 0 && s.width < 60 {
		if s.connected {
			return lipgloss.NewStyle().Foreground(colorSuccess).Render("●")
		}
		return lipgloss.NewStyle().Foreground(colorError).Render("○")
	}

	if s.connected {
		return lipgloss.NewStyle().Foreground(colorSuccess).Render("●") + " connected"
	}
	return lipgloss.NewStyle().Foreground(colorError).Render("○") + " disconnected"
}

// truncateString truncates a string to fit within maxWidth, adding "..." if
// truncated.
func truncateString(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}

	if lipgloss.Width(s) <= maxWidth {
		return s
	}

	runes := []rune(s)
	targetLen := maxWidth - 3
	if targetLen >= len(runes) {
		return s
	}

	return string(runes[:targetLen]) + "..."
}
