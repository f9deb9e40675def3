package tui

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/driftlabs/driftline/internal/tui/theme"
)

// Dialog is a modal confirmation overlay. The app uses it to guard
// destructive actions, like closing a tab that still has queued messages.
type Dialog struct {
	title      string
	message    string
	button     string
	visible    bool
	width      int
	height     int
	onConfirm  func() tea.Cmd
	dialogArea uv.Rectangle // for mouse hit detection
}

// NewDialog creates a new dialog
func NewDialog() *Dialog {
	return &Dialog{
		visible: false,
		button:  "OK",
	}
}

// Show displays the dialog. onConfirm runs when the user accepts; esc
// dismisses without running it.
func (d *Dialog) Show(title, message string, onConfirm func() tea.Cmd) {
	d.title = title
	d.message = message
	d.visible = true
	d.onConfirm = onConfirm
}

// Hide closes the dialog
func (d *Dialog) Hide() {
	d.visible = false
}

// IsVisible returns whether the dialog is visible
func (d *Dialog) IsVisible() bool {
	return d.visible
}

// SetSize updates the dialog's knowledge of screen size
func (d *Dialog) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// Update handles dialog input
func (d *Dialog) Update(msg tea.Msg) tea.Cmd {
	if !d.visible {
		return nil
	}

	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "enter", " ":
			d.Hide()
			if d.onConfirm != nil {
				return d.onConfirm()
			}
		case "esc", "escape":
			d.Hide()
		}
	}
	return nil
}

// Draw renders the dialog centered on screen
func (d *Dialog) Draw(scr uv.Screen, area uv.Rectangle) {
	if !d.visible {
		return
	}

	// Calculate content width first for consistent alignment
	messageWidth := lipgloss.Width(d.message)
	titleWidth := lipgloss.Width(d.title)
	contentWidth := messageWidth
	if titleWidth > contentWidth {
		contentWidth = titleWidth
	}

	t := theme.Current()
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Primary)).
		Bold(true).
		Width(contentWidth).
		Align(lipgloss.Center)

	messageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.FgBase)).
		Width(contentWidth).
		Align(lipgloss.Center)

	buttonStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.BgBase)).
		Background(lipgloss.Color(t.Primary)).
		Padding(0, 2)

	title := titleStyle.Render(d.title)
	message := messageStyle.Render(d.message)
	button := buttonStyle.Render(d.button)

	buttonLine := lipgloss.NewStyle().
		Width(contentWidth).
		Align(lipgloss.Center).
		Render(button)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		"",
		buttonLine,
	)

	dialogStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(t.Primary)).
		Padding(1, 3)

	dialog := dialogStyle.Render(content)

	dialogWidth := lipgloss.Width(dialog)
	dialogHeight := lipgloss.Height(dialog)
	x := (area.Dx() - dialogWidth) / 2
	y := (area.Dy() - dialogHeight) / 2

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	d.dialogArea = uv.Rectangle{
		Min: uv.Position{X: area.Min.X + x, Y: area.Min.Y + y},
		Max: uv.Position{X: area.Min.X + x + dialogWidth, Y: area.Min.Y + y + dialogHeight},
	}

	uv.NewStyledString(dialog).Draw(scr, d.dialogArea)
}

// HandleClick processes a mouse click. Clicking inside the dialog confirms,
// clicking outside dismisses.
func (d *Dialog) HandleClick(x, y int) tea.Cmd {
	if !d.visible {
		return nil
	}

	inside := x >= d.dialogArea.Min.X && x < d.dialogArea.Max.X &&
		y >= d.dialogArea.Min.Y && y < d.dialogArea.Max.Y

	d.Hide()
	if inside && d.onConfirm != nil {
		return d.onConfirm()
	}
	return nil
}
