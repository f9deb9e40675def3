package tui

import (
	"charm.land/lipgloss/v2"
)

// Color palette, Catppuccin Mocha.
//
// BACKGROUNDS (darkest to lightest): colorCrust, colorMantle, colorBase,
// colorSurface0/1/2. TEXT (dimmest to brightest): colorSubtext0, colorText,
// colorTextBright. Accents carry semantic meaning: primary for brand and
// focus, success/warning/error/info for status.
// hexSurface0 is the raw hex for colorSurface0, for libraries that take hex
// strings rather than color values (chroma style building).
const hexSurface0 = "#313244"

var (
	// === BASE LAYER (backgrounds) ===
	colorBase     = lipgloss.Color("#1e1e2e")
	colorMantle   = lipgloss.Color("#181825")
	colorCrust    = lipgloss.Color("#11111b")
	colorSurface0 = lipgloss.Color(hexSurface0)
	colorSurface1 = lipgloss.Color("#45475a")
	colorSurface2 = lipgloss.Color("#585b70")
	colorOverlay0 = lipgloss.Color("#6c7086")

	// === TEXT LAYER (foreground) ===
	colorSubtext0   = lipgloss.Color("#a6adc8")
	colorText       = lipgloss.Color("#cdd6f4")
	colorTextBright = lipgloss.Color("#f5e0dc")

	// === ACCENT COLORS (semantic) ===
	colorPrimary   = lipgloss.Color("#cba6f7") // Mauve
	colorSecondary = lipgloss.Color("#89b4fa") // Blue
	colorTertiary  = lipgloss.Color("#b4befe") // Lavender

	colorSuccess = lipgloss.Color("#a6e3a1")
	colorWarning = lipgloss.Color("#f9e2af")
	colorError   = lipgloss.Color("#f38ba8")
	colorInfo    = lipgloss.Color("#89dceb")

	colorPeach = lipgloss.Color("#fab387")

	// === ALIASES ===
	colorMuted    = colorOverlay0
	colorTextDim  = colorSubtext0
	colorBgHeader = colorMantle
)

// Style definitions
var (
	// Header / tab bar styles
	styleHeader = lipgloss.NewStyle().
			Foreground(colorTextBright).
			Background(colorBgHeader).
			Bold(true).
			Padding(0, 1)

	styleHeaderTitle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleHeaderSeparator = lipgloss.NewStyle().
				Foreground(colorMuted)

	styleHeaderInfo = lipgloss.NewStyle().
			Foreground(colorText)

	styleTabActive = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Background(colorSurface0).
			Bold(true).
			Padding(0, 1)

	styleTabInactive = lipgloss.NewStyle().
				Foreground(colorTextDim).
				Padding(0, 1)

	// Status bar style
	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorBgHeader).
			Padding(0, 1)

	// General styles
	styleHighlight = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleDim = lipgloss.NewStyle().
			Foreground(colorTextDim)

	// Panel styles (used by DrawPanel)
	stylePanelTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	stylePanelTitleFocused = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true)

	stylePanelRule = lipgloss.NewStyle().
			Foreground(colorMuted)

	stylePanelRuleFocused = lipgloss.NewStyle().
				Foreground(colorSecondary)

	// Chat message styles
	styleUserPrefix = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	styleUserMessage = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder(), false, false, false, true).
				BorderForeground(colorSecondary).
				PaddingLeft(1).
				Foreground(colorText)

	styleAssistantBorder = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder(), false, false, false, true).
				BorderForeground(colorPrimary).
				PaddingLeft(1)

	styleAuthorTag = lipgloss.NewStyle().
			Foreground(colorTextDim)

	// Tool output styles
	styleToolName = lipgloss.NewStyle().
			Foreground(colorTertiary).
			Bold(true)

	styleToolOutput = lipgloss.NewStyle().
			Foreground(colorSubtext0).
			Background(colorSurface0).
			MarginLeft(2)

	styleToolTruncation = lipgloss.NewStyle().
				Foreground(colorTextDim).
				Italic(true).
				MarginLeft(2)

	// Code block styles
	styleCodeContent = lipgloss.NewStyle().
				Background(colorSurface0)

	// Lock indicator and graceful-return hint
	styleLockIndicator = lipgloss.NewStyle().
				Foreground(colorCrust).
				Background(colorPeach).
				Bold(true).
				Padding(0, 1)

	styleReturnHint = lipgloss.NewStyle().
			Foreground(colorCrust).
			Background(colorSecondary).
			Bold(true).
			Padding(0, 1)

	// Queue pill styles
	styleQueuePill = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorSurface0).
			Padding(0, 1)

	styleQueuePillPaused = lipgloss.NewStyle().
				Foreground(colorCrust).
				Background(colorWarning).
				Padding(0, 1)

	styleQueueBadge = lipgloss.NewStyle().
			Foreground(colorCrust).
			Background(colorTertiary).
			Bold(true).
			Padding(0, 1)

	// Scroll indicator
	styleScrollIndicator = lipgloss.NewStyle().
				Foreground(colorTextDim).
				Background(colorSurface0)

	// Empty state styles
	styleEmptyState = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Italic(true)
)
