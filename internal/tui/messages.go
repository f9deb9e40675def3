package tui

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// MessageItem represents a displayable message item in the chat view.
type MessageItem interface {
	// ID returns the unique identifier for this message item.
	ID() string
	// Render returns the rendered string representation at the given width.
	Render(width int) string
	// Height returns the number of lines this item occupies (0 if not yet rendered).
	Height() int
}

// Expandable is an optional interface for message items that support expand/collapse.
type Expandable interface {
	IsExpanded() bool
	ToggleExpanded()
}

// UserMessageItem represents a message sent by a user.
type UserMessageItem struct {
	id           string
	author       string
	content      string
	sentAt       time.Time
	cachedRender string
	cachedWidth  int
}

// NewUserMessageItem creates a user message item.
func NewUserMessageItem(id, author, content string, sentAt time.Time) *UserMessageItem {
	return &UserMessageItem{
		id:      id,
		author:  author,
		content: content,
		sentAt:  sentAt,
	}
}

// ID returns the unique identifier for this user message.
func (u *UserMessageItem) ID() string {
	return u.id
}

// Render renders the user message at the given width.
func (u *UserMessageItem) Render(width int) string {
	if u.cachedWidth == width && u.cachedRender != "" {
		return u.cachedRender
	}

	effectiveWidth := width - 2
	if effectiveWidth < 1 {
		effectiveWidth = 1
	}

	header := styleUserPrefix.Render("❯ " + u.author)
	if !u.sentAt.IsZero() {
		header += " " + styleAuthorTag.Render(u.sentAt.Format("15:04"))
	}

	body := wrapText(u.content, effectiveWidth)
	result := styleUserMessage.Render(header + "\n" + body)

	u.cachedRender = result
	u.cachedWidth = width
	return result
}

// Height returns the number of lines this user message occupies.
func (u *UserMessageItem) Height() int {
	return countLines(u.cachedRender)
}

// AssistantMessageItem represents assistant text content, rendered as markdown.
type AssistantMessageItem struct {
	id           string
	content      string
	streaming    bool
	cachedRender string
	cachedWidth  int
}

// NewAssistantMessageItem creates an assistant message item.
func NewAssistantMessageItem(id, content string) *AssistantMessageItem {
	return &AssistantMessageItem{id: id, content: content}
}

// ID returns the unique identifier for this assistant message.
func (a *AssistantMessageItem) ID() string {
	return a.id
}

// SetContent replaces the content and invalidates the render cache.
func (a *AssistantMessageItem) SetContent(content string) {
	a.content = content
	a.cachedWidth = 0
}

// AppendContent appends streamed content and invalidates the render cache.
func (a *AssistantMessageItem) AppendContent(chunk string) {
	a.content += chunk
	a.cachedWidth = 0
}

// SetStreaming toggles the streaming indicator.
func (a *AssistantMessageItem) SetStreaming(streaming bool) {
	if a.streaming != streaming {
		a.streaming = streaming
		a.cachedWidth = 0
	}
}

// Render renders the assistant message at the given width.
// Markdown with syntax highlighting, capped at min(width-2, 120) columns.
func (a *AssistantMessageItem) Render(width int) string {
	if a.cachedWidth == width && a.cachedRender != "" {
		return a.cachedRender
	}

	// Subtract 2 for the left border and padding added by styleAssistantBorder
	effectiveWidth := width - 2
	if effectiveWidth > 120 {
		effectiveWidth = 120
	}
	if effectiveWidth < 1 {
		effectiveWidth = 1
	}

	rendered := renderMarkdown(a.content, effectiveWidth)
	if a.streaming {
		rendered += styleDim.Render(" ▍")
	}

	result := styleAssistantBorder.Render(rendered)

	a.cachedRender = result
	a.cachedWidth = width
	return result
}

// Height returns the number of lines this assistant message occupies.
func (a *AssistantMessageItem) Height() int {
	return countLines(a.cachedRender)
}

// ToolMessageItem represents tool output attached to the conversation.
type ToolMessageItem struct {
	id           string
	toolName     string
	output       string
	fileName     string // when set, output is highlighted as code from this file
	expanded     bool
	maxLines     int // default 10
	cachedRender string
	cachedWidth  int
}

// NewToolMessageItem creates a tool output item.
func NewToolMessageItem(id, toolName, output string) *ToolMessageItem {
	return &ToolMessageItem{
		id:       id,
		toolName: toolName,
		output:   output,
		maxLines: 10,
	}
}

// ID returns the unique identifier for this tool message.
func (t *ToolMessageItem) ID() string {
	return t.id
}

// Render renders the tool message at the given width.
// Shows a header with the tool name and the output body capped at maxLines
// (or all lines if expanded). File output uses syntax highlighting.
func (t *ToolMessageItem) Render(width int) string {
	if t.cachedWidth == width && t.cachedRender != "" {
		return t.cachedRender
	}

	var result strings.Builder
	result.WriteString("  " + styleToolName.Render(t.toolName))

	if t.output != "" {
		result.WriteString("\n")

		outputLines := strings.Split(t.output, "\n")
		visibleLines := outputLines
		hiddenCount := 0
		if !t.expanded && len(outputLines) > t.maxLines {
			visibleLines = outputLines[:t.maxLines]
			hiddenCount = len(outputLines) - t.maxLines
		}

		outputWidth := width - 2 // account for MarginLeft(2) on output styles
		if outputWidth < 1 {
			outputWidth = 1
		}

		if t.fileName != "" {
			highlighted := syntaxHighlight(strings.Join(visibleLines, "\n"), t.fileName)
			for _, line := range strings.Split(highlighted, "\n") {
				result.WriteString(styleCodeContent.Width(outputWidth).Render(line))
				result.WriteString("\n")
			}
		} else {
			for _, line := range visibleLines {
				result.WriteString(styleToolOutput.Width(outputWidth).Render(line))
				result.WriteString("\n")
			}
		}

		if hiddenCount > 0 {
			hint := fmt.Sprintf("…(%d more lines, click to expand)", hiddenCount)
			result.WriteString(styleToolTruncation.Render(hint))
			result.WriteString("\n")
		}
	}

	rendered := strings.TrimSuffix(result.String(), "\n")
	t.cachedRender = rendered
	t.cachedWidth = width
	return rendered
}

// Height returns the number of lines this tool message occupies.
func (t *ToolMessageItem) Height() int {
	return countLines(t.cachedRender)
}

// IsExpanded returns whether the tool message is expanded.
func (t *ToolMessageItem) IsExpanded() bool {
	return t.expanded
}

// ToggleExpanded toggles the expanded/collapsed state.
func (t *ToolMessageItem) ToggleExpanded() {
	t.expanded = !t.expanded
	t.cachedWidth = 0
}

// countLines counts rendered lines; 0 for an empty cache.
func countLines(rendered string) int {
	if rendered == "" {
		return 0
	}
	lines := 1
	for _, ch := range rendered {
		if ch == '\n' {
			lines++
		}
	}
	return lines
}

// syntaxHighlight applies syntax highlighting to source code and returns
// a string with ANSI color codes for terminal display.
//
// It uses the fileName to detect the language, falling back to content analysis,
// and finally to a plain text lexer. The output uses true color (24-bit) ANSI codes.
func syntaxHighlight(source, fileName string) string {
	lexer := lexers.Match(fileName)
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Get("terminal256")
	}
	if formatter == nil {
		return styleToolOutput.Render(source)
	}

	baseStyle := styles.Get("monokai")
	if baseStyle == nil {
		baseStyle = styles.Fallback
	}

	// Transform token backgrounds to match the code block background.
	// Monokai's own #272822 clashes with colorSurface0.
	bgColour := chroma.MustParseColour(hexSurface0)
	style, err := baseStyle.Builder().Transform(func(entry chroma.StyleEntry) chroma.StyleEntry {
		entry.Background = bgColour
		return entry
	}).Build()
	if err != nil {
		style = baseStyle
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return styleToolOutput.Render(source)
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return styleToolOutput.Render(source)
	}

	return strings.TrimRight(buf.String(), "\n")
}
