package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/editor"

	"github.com/driftlabs/driftline/internal/queue"
)

// InputSubmittedMsg reports the outcome of a submit from the chat input.
type InputSubmittedMsg struct {
	Content string
	Queued  bool
	Err     error
}

// editorFinishedMsg carries content back from an external $EDITOR session.
// A non-empty queue item ID means a queued message was edited, otherwise the
// draft in the input box.
type editorFinishedMsg struct {
	itemID  string
	content string
}

// ChatInput is the message composer. It owns the send queue: messages
// submitted while the agent is busy are queued and replayed in order, with
// interruptions jumping the line. Queued messages render as pills above the
// input box and can be selected, reordered, edited, removed, or sent out of
// order.
type ChatInput struct {
	textarea textarea.Model
	queue    *queue.Queue

	selected int // selected pill index, -1 when none
	width    int
	height   int
	focused  bool

	inputArea uv.Rectangle
}

// Compile-time interface checks
var _ Component = (*ChatInput)(nil)
var _ Sizable = (*ChatInput)(nil)
var _ Focusable = (*ChatInput)(nil)

// NewChatInput creates a chat input owning the given queue.
func NewChatInput(q *queue.Queue) *ChatInput {
	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(3)

	return &ChatInput{
		textarea: ta,
		queue:    q,
		selected: -1,
	}
}

// Queue exposes the send queue for status surfaces.
func (c *ChatInput) Queue() *queue.Queue {
	return c.queue
}

// Value returns the current draft text.
func (c *ChatInput) Value() string {
	return c.textarea.Value()
}

// SetFocus updates the focus state.
func (c *ChatInput) SetFocus(focused bool) {
	c.focused = focused
	if focused {
		c.textarea.Focus()
	} else {
		c.textarea.Blur()
	}
}

// IsFocused returns whether the input is focused.
func (c *ChatInput) IsFocused() bool {
	return c.focused
}

// HasSelection reports whether a queue pill is currently selected.
func (c *ChatInput) HasSelection() bool {
	return c.selected >= 0
}

// Focus focuses the textarea and returns its cursor command.
func (c *ChatInput) Focus() tea.Cmd {
	c.focused = true
	return c.textarea.Focus()
}

// SetSize updates the input dimensions.
func (c *ChatInput) SetSize(width, height int) {
	c.width = width
	c.height = height

	taHeight := height
	if c.queue.Len() > 0 {
		taHeight--
	}
	if taHeight < 1 {
		taHeight = 1
	}
	c.textarea.SetWidth(width - 1)
	c.textarea.SetHeight(taHeight)
}

// IsInputAreaClick reports whether screen coordinates fall inside the input
// box drawn by the last Draw call.
func (c *ChatInput) IsInputAreaClick(x, y int) bool {
	return x >= c.inputArea.Min.X && x < c.inputArea.Max.X &&
		y >= c.inputArea.Min.Y && y < c.inputArea.Max.Y
}

// Update handles messages for the chat input.
func (c *ChatInput) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case editorFinishedMsg:
		if msg.itemID != "" {
			c.queue.Edit(msg.itemID, msg.content)
			return nil
		}
		c.textarea.SetValue(strings.TrimRight(msg.content, "\n"))
		return nil

	case tea.KeyPressMsg:
		if !c.focused {
			return nil
		}
		return c.handleKey(msg)
	}

	if !c.focused {
		return nil
	}
	var cmd tea.Cmd
	c.textarea, cmd = c.textarea.Update(msg)
	return cmd
}

func (c *ChatInput) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return c.submit()

	case "alt+enter", "ctrl+j":
		c.textarea.InsertString("\n")
		return nil

	case "ctrl+e":
		if c.selected >= 0 {
			if item, ok := c.selectedItem(); ok {
				return c.openEditor(item.ID, item.Content)
			}
		}
		return c.openEditor("", c.textarea.Value())

	case "alt+left":
		c.moveSelection(-1)
		return nil

	case "alt+right":
		c.moveSelection(1)
		return nil

	case "alt+up":
		return c.reorderSelected(-1)

	case "alt+down":
		return c.reorderSelected(1)

	case "alt+x":
		if item, ok := c.selectedItem(); ok {
			c.queue.Remove(item.ID)
			c.clampSelection()
		}
		return nil

	case "alt+s":
		if item, ok := c.selectedItem(); ok {
			err := c.queue.SendNow(item.ID, time.Now())
			c.clampSelection()
			if err != nil {
				return reportSubmit(item.Content, false, err)
			}
		}
		return nil

	case "alt+r":
		if err := c.queue.Resume(time.Now()); err != nil {
			return reportSubmit("", false, err)
		}
		return nil

	case "alt+c":
		c.queue.Clear()
		c.selected = -1
		return nil

	case "esc":
		if c.selected >= 0 {
			c.selected = -1
			return nil
		}
	}

	var cmd tea.Cmd
	c.textarea, cmd = c.textarea.Update(msg)
	return cmd
}

// submit pushes the draft through the queue state machine. Sent directly
// when the agent is idle, queued when busy.
func (c *ChatInput) submit() tea.Cmd {
	content := strings.TrimSpace(c.textarea.Value())
	if content == "" {
		return nil
	}

	queued, err := c.queue.SubmitInput(content, time.Now())
	if err != nil {
		// The draft stays in the box so nothing is lost.
		return reportSubmit(content, queued, err)
	}

	c.textarea.SetValue("")
	return reportSubmit(content, queued, nil)
}

func reportSubmit(content string, queued bool, err error) tea.Cmd {
	return func() tea.Msg {
		return InputSubmittedMsg{Content: content, Queued: queued, Err: err}
	}
}

// openEditor launches $EDITOR on a temp file seeded with the given content.
func (c *ChatInput) openEditor(itemID, content string) tea.Cmd {
	tmpfile, err := os.CreateTemp("", "driftline-draft-*.md")
	if err != nil {
		return nil
	}
	if _, err := tmpfile.WriteString(content); err != nil {
		_ = tmpfile.Close()
		_ = os.Remove(tmpfile.Name())
		return nil
	}
	_ = tmpfile.Close()

	path := tmpfile.Name()
	cmd, err := editor.Command("driftline", path)
	if err != nil {
		_ = os.Remove(path)
		return nil
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		defer os.Remove(path)
		if err != nil {
			return nil
		}
		edited, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		return editorFinishedMsg{itemID: itemID, content: string(edited)}
	})
}

func (c *ChatInput) selectedItem() (queue.Message, bool) {
	items := c.queue.Messages()
	if c.selected < 0 || c.selected >= len(items) {
		return queue.Message{}, false
	}
	return items[c.selected], true
}

func (c *ChatInput) moveSelection(delta int) {
	n := c.queue.Len()
	if n == 0 {
		c.selected = -1
		return
	}
	if c.selected < 0 {
		if delta > 0 {
			c.selected = 0
		} else {
			c.selected = n - 1
		}
		return
	}
	c.selected += delta
	if c.selected < 0 {
		c.selected = 0
	}
	if c.selected >= n {
		c.selected = n - 1
	}
}

func (c *ChatInput) clampSelection() {
	n := c.queue.Len()
	if n == 0 {
		c.selected = -1
		return
	}
	if c.selected >= n {
		c.selected = n - 1
	}
}

// reorderSelected swaps the selected pill with its neighbor.
func (c *ChatInput) reorderSelected(delta int) tea.Cmd {
	items := c.queue.Messages()
	target := c.selected + delta
	if c.selected < 0 || target < 0 || target >= len(items) {
		return nil
	}

	order := make([]string, len(items))
	for i, item := range items {
		order[i] = item.ID
	}
	order[c.selected], order[target] = order[target], order[c.selected]
	c.queue.Reorder(order)
	c.selected = target
	return nil
}

// Draw renders the queue pills and the input box.
func (c *ChatInput) Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor {
	y := area.Min.Y

	if c.queue.Len() > 0 {
		pillArea := uv.Rect(area.Min.X, y, area.Dx(), 1)
		DrawText(scr, pillArea, c.renderPills())
		y++
	}

	taArea := uv.Rectangle{
		Min: uv.Position{X: area.Min.X, Y: y},
		Max: area.Max,
	}
	c.inputArea = taArea
	uv.NewStyledString(c.textarea.View()).Draw(scr, taArea)

	return nil
}

// renderPills renders the queued messages as a row of pills with the queue
// badge and pause state.
func (c *ChatInput) renderPills() string {
	items := c.queue.Messages()

	var b strings.Builder
	badge := fmt.Sprintf(" %d queued ", len(items))
	if c.queue.Paused() {
		badge = " ⏸ paused (alt+r resumes) "
		b.WriteString(styleQueuePillPaused.Render(badge))
	} else {
		b.WriteString(styleQueueBadge.Render(badge))
	}
	b.WriteString(" ")

	for i, item := range items {
		label := fmt.Sprintf(" %d:%s ", i+1, truncateLabel(item.Content, 24))
		style := styleQueuePill
		if i == c.selected {
			style = styleHighlight
		}
		b.WriteString(style.Render(label))
		b.WriteString(" ")
	}

	// The draw area clips overflow, no need to truncate the styled row.
	return b.String()
}

// truncateLabel shortens s to at most n runes, appending an ellipsis.
func truncateLabel(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
