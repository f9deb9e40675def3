package tui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/driftlabs/driftline/internal/session"
)

// glideTickMsg advances a smooth scroll animation frame. Ticks from another
// view or with a stale generation are cancelled glides.
type glideTickMsg struct {
	owner *ChatView
	gen   uint64
}

const glideFrame = 16 * time.Millisecond

// ChatView displays the conversation transcript in a scrollable viewport.
//
// In intelligent mode scroll decisions are delegated to the Coordinator:
// the view follows new content while the user is idle at the bottom, holds
// position while they read, and never moves while a message is pinned. In
// legacy mode it falls back to plain stick-to-bottom-while-at-bottom.
type ChatView struct {
	viewport    viewport.Model
	coordinator *Coordinator
	registry    *ItemRegistry
	items       []MessageItem
	itemIndex   map[string]int // message id → items index
	state       *session.State

	width   int
	height  int
	ready   bool
	focused bool

	intelligent bool
	autoScroll  bool // legacy mode only

	spinner   *GradientSpinner
	streaming bool

	viewportArea uv.Rectangle

	glideGen       uint64
	glideRequested bool
}

// Compile-time interface checks
var _ FocusableComponent = (*ChatView)(nil)
var _ Scroller = (*ChatView)(nil)

// NewChatView creates a chat view. Pass intelligent=false for the legacy
// stick-to-bottom behavior.
func NewChatView(intelligent bool, opts CoordinatorOptions) *ChatView {
	c := &ChatView{
		registry:    NewItemRegistry(),
		itemIndex:   make(map[string]int),
		intelligent: intelligent,
		autoScroll:  true,
	}
	c.coordinator = NewCoordinator(c, opts)
	return c
}

// Coordinator exposes the scroll coordinator for status surfaces.
func (c *ChatView) Coordinator() *Coordinator {
	return c.coordinator
}

// Snapshot returns the current scroll geometry. Known is false until the
// viewport has been sized.
func (c *ChatView) Snapshot() ScrollSnapshot {
	if !c.ready {
		return ScrollSnapshot{}
	}
	return ScrollSnapshot{
		Top:          c.viewport.YOffset(),
		TotalLines:   c.viewport.TotalLineCount(),
		VisibleLines: c.viewport.Height(),
		Known:        true,
	}
}

// ScrollToBottom moves the viewport to the end of content. Smooth scrolls
// run as a glide animation started by the surrounding Update call.
func (c *ChatView) ScrollToBottom(behavior ScrollBehavior) {
	if !c.ready {
		return
	}
	if behavior == BehaviorImmediate {
		c.glideGen++
		c.viewport.GotoBottom()
		return
	}
	c.glideRequested = true
}

// ScrollToOffset moves the viewport so the given content line is at the top.
func (c *ChatView) ScrollToOffset(top int, behavior ScrollBehavior) {
	if !c.ready {
		return
	}
	c.glideGen++
	c.viewport.SetYOffset(top)
}

// SetSize updates the chat view dimensions.
func (c *ChatView) SetSize(width, height int) {
	c.width = width
	c.height = height

	if !c.ready {
		c.viewport = viewport.New(
			viewport.WithWidth(width),
			viewport.WithHeight(height),
		)
		c.viewport.MouseWheelEnabled = true
		c.viewport.MouseWheelDelta = 3
		c.ready = true
	} else {
		c.viewport.SetWidth(width)
		c.viewport.SetHeight(height)
	}

	for _, item := range c.items {
		invalidateCache(item)
	}
	c.refreshContent()
}

// SetFocus updates the focus state.
func (c *ChatView) SetFocus(focused bool) {
	c.focused = focused
}

// IsFocused returns whether the chat view is focused.
func (c *ChatView) IsFocused() bool {
	return c.focused
}

// SetState rebuilds the transcript from session state. Returns a command
// when grown content schedules a scroll decision.
func (c *ChatView) SetState(state *session.State) {
	c.state = state
	c.rebuildItems()
}

// ApplyState is SetState plus content-change coordination. The returned
// command carries any scheduled scroll decision.
func (c *ChatView) ApplyState(state *session.State) tea.Cmd {
	before := 0
	if c.ready {
		before = c.viewport.TotalLineCount()
	}

	c.SetState(state)

	if !c.ready {
		return nil
	}
	after := c.viewport.TotalLineCount()
	if after <= before {
		return nil
	}

	if !c.intelligent {
		if c.autoScroll {
			c.viewport.GotoBottom()
		}
		return nil
	}
	return c.wrapScrollCmd(c.coordinator.HandleContentChange())
}

// SetStreaming toggles the generating spinner shown before the first token.
func (c *ChatView) SetStreaming(streaming bool) tea.Cmd {
	if c.streaming == streaming {
		return nil
	}
	c.streaming = streaming
	if streaming {
		spinner := NewGradientSpinner("#cba6f7", "#89b4fa", "Thinking...")
		c.spinner = &spinner
		c.refreshContent()
		return c.spinner.Tick()
	}
	c.spinner = nil
	c.refreshContent()
	return nil
}

// Update handles messages for the chat view.
func (c *ChatView) Update(msg tea.Msg) tea.Cmd {
	if !c.ready {
		return nil
	}

	switch msg := msg.(type) {
	case glideTickMsg:
		return c.advanceGlide(msg)

	case autoScrollTickMsg, gracefulReturnTickMsg, idleTickMsg:
		return c.wrapScrollCmd(c.coordinator.Update(msg))

	case tea.KeyPressMsg:
		if !c.focused {
			return nil
		}
		return c.handleKey(msg)
	}

	if c.spinner != nil {
		if cmd := c.spinner.Update(msg); cmd != nil {
			c.refreshContent()
			return cmd
		}
	}

	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	return cmd
}

func (c *ChatView) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "end", "G":
		c.JumpToLatest()
		return nil
	case "esc":
		if c.coordinator.IsLocked() {
			c.coordinator.Unlock()
			c.refreshContent()
			return nil
		}
	case "home", "g":
		c.glideGen++
		c.viewport.GotoTop()
		return c.recordSignal(SignalKey)
	}

	// Navigation keys cancel any in-flight glide before the viewport moves.
	c.glideGen++
	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)

	if c.intelligent {
		return tea.Batch(cmd, c.recordSignal(SignalKey))
	}
	c.autoScroll = c.viewport.AtBottom()
	return cmd
}

// ScrollBy scrolls the viewport by the given number of lines. Positive
// scrolls down. Called by the app's wheel routing.
func (c *ChatView) ScrollBy(lines int) tea.Cmd {
	if !c.ready || lines == 0 {
		return nil
	}
	c.glideGen++
	c.viewport.SetYOffset(c.viewport.YOffset() + lines)

	if c.intelligent {
		return c.recordSignal(SignalWheel)
	}
	c.autoScroll = c.viewport.AtBottom()
	return nil
}

// RecordMotion feeds pointer motion over the transcript into the activity
// tracker.
func (c *ChatView) RecordMotion() tea.Cmd {
	if !c.intelligent || !c.ready {
		return nil
	}
	return c.recordSignal(SignalMotion)
}

// IsViewportArea reports whether the screen coordinates fall inside the
// transcript area drawn by the last Draw call.
func (c *ChatView) IsViewportArea(x, y int) bool {
	return x >= c.viewportArea.Min.X && x < c.viewportArea.Max.X &&
		y >= c.viewportArea.Min.Y && y < c.viewportArea.Max.Y
}

// HandleClick processes a mouse click at screen coordinates. Clicking a
// message pins the view to it; clicking the pinned message unpins. Tool
// output also toggles expansion.
func (c *ChatView) HandleClick(x, y int) tea.Cmd {
	if !c.ready || !c.IsViewportArea(x, y) {
		return nil
	}

	contentLine := (y - c.viewportArea.Min.Y) + c.viewport.YOffset()
	id := c.registry.ItemAt(contentLine)

	var signalCmd tea.Cmd
	if c.intelligent {
		signalCmd = c.recordSignal(SignalClick)
	}
	if id == "" {
		return signalCmd
	}

	if idx, ok := c.itemIndex[id]; ok {
		if expandable, ok := c.items[idx].(Expandable); ok {
			expandable.ToggleExpanded()
		}
	}

	if c.intelligent {
		if c.coordinator.LockedID() == id {
			c.coordinator.Unlock()
		} else {
			c.coordinator.LockTo(id)
		}
	}

	c.refreshContent()
	return signalCmd
}

// UnlockPin clears the message pin if one is set. Returns true when a pin
// was cleared, so callers can decide whether esc is consumed.
func (c *ChatView) UnlockPin() bool {
	if !c.coordinator.IsLocked() {
		return false
	}
	c.coordinator.Unlock()
	c.refreshContent()
	return true
}

// JumpToLatest is the manual "jump to latest" trigger.
func (c *ChatView) JumpToLatest() {
	if !c.ready {
		return
	}
	c.glideGen++
	if c.intelligent {
		c.coordinator.ScrollToBottomNow()
		return
	}
	c.autoScroll = true
	c.viewport.GotoBottom()
}

// Draw renders the chat view to the screen buffer.
func (c *ChatView) Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor {
	if !c.ready {
		DrawText(scr, area, styleDim.Render("Connecting..."))
		return nil
	}

	contentArea := area
	if c.coordinator.IsLocked() {
		label := fmt.Sprintf(" ⚲ pinned to %s (esc to unlock) ", c.coordinator.LockedID())
		indicatorArea := uv.Rect(area.Min.X, area.Min.Y, area.Dx(), 1)
		DrawStyled(scr, indicatorArea, styleLockIndicator, label)
		contentArea = uv.Rect(area.Min.X, area.Min.Y+1, area.Dx(), area.Dy()-1)
	}

	c.viewportArea = contentArea
	uv.NewStyledString(c.viewport.View()).Draw(scr, contentArea)

	if c.coordinator.ReturnHint() {
		hint := " ↓ new messages (end) "
		hintArea := uv.Rect(
			area.Min.X+(area.Dx()-len(hint))/2,
			area.Max.Y-1,
			len(hint),
			1,
		)
		DrawStyled(scr, hintArea, styleReturnHint, hint)
	}

	if c.viewport.TotalLineCount() > c.viewport.Height() {
		DrawScrollIndicator(scr, area, c.viewport.ScrollPercent())
	}

	return nil
}

// rebuildItems regenerates message items from session state, reusing
// existing items so render caches and expansion state survive.
func (c *ChatView) rebuildItems() {
	if c.state == nil {
		return
	}

	items := make([]MessageItem, 0, len(c.state.Messages))
	index := make(map[string]int, len(c.state.Messages))

	for _, msg := range c.state.Messages {
		var item MessageItem
		if prev, ok := c.itemIndex[msg.ID]; ok {
			item = c.items[prev]
		}

		switch msg.Role {
		case "assistant":
			assistant, ok := item.(*AssistantMessageItem)
			if !ok {
				assistant = NewAssistantMessageItem(msg.ID, msg.Content)
			} else {
				assistant.SetContent(msg.Content)
			}
			assistant.SetStreaming(!msg.Final)
			item = assistant
		default:
			user, ok := item.(*UserMessageItem)
			if !ok {
				user = NewUserMessageItem(msg.ID, msg.Author, msg.Content, msg.CreatedAt)
			}
			item = user
		}

		index[msg.ID] = len(items)
		items = append(items, item)
	}

	c.items = items
	c.itemIndex = index
	c.refreshContent()
}

// refreshContent rebuilds the viewport content and the line-range registry.
// While a message is pinned, its top line is kept stationary on screen
// across reflows.
func (c *ChatView) refreshContent() {
	if !c.ready {
		return
	}

	anchorID := c.coordinator.LockedID()
	anchorScreenLine := -1
	if anchorID != "" {
		if lr, ok := c.registry.RangeFor(anchorID); ok {
			anchorScreenLine = lr.Start - c.viewport.YOffset()
		}
	}

	var rendered strings.Builder
	contentWidth := c.width - 1
	currentLine := 0
	c.registry.Clear()

	if len(c.items) == 0 && !c.streaming {
		c.viewport.SetContent(styleEmptyState.Render("No messages yet. Say something."))
		return
	}

	for i, item := range c.items {
		block := item.Render(contentWidth)
		blockLines := strings.Count(block, "\n") + 1
		c.registry.SetItemRange(item.ID(), currentLine, currentLine+blockLines)

		rendered.WriteString(block)
		rendered.WriteString("\n")
		currentLine += blockLines

		if i < len(c.items)-1 {
			rendered.WriteString("\n")
			currentLine++
		}
	}

	if c.streaming && c.spinner != nil {
		rendered.WriteString("\n")
		rendered.WriteString(c.spinner.View())
		rendered.WriteString("\n")
	}

	c.viewport.SetContent(rendered.String())

	if anchorID != "" && anchorScreenLine >= 0 {
		if lr, ok := c.registry.RangeFor(anchorID); ok {
			c.viewport.SetYOffset(lr.Start - anchorScreenLine)
		}
		// Anchor gone from the transcript: the lock stays active, only the
		// visual anchoring degrades.
	}
}

// recordSignal feeds a signal into the coordinator and wraps any resulting
// command. No-op in legacy mode.
func (c *ChatView) recordSignal(kind SignalKind) tea.Cmd {
	if !c.intelligent {
		return nil
	}
	return c.wrapScrollCmd(c.coordinator.RecordSignal(kind))
}

// wrapScrollCmd attaches a glide animation start to a coordinator command
// when the coordinator requested a smooth scroll during the call.
func (c *ChatView) wrapScrollCmd(cmd tea.Cmd) tea.Cmd {
	if !c.glideRequested {
		return cmd
	}
	c.glideRequested = false
	c.glideGen++
	gen := c.glideGen
	glide := tea.Tick(glideFrame, func(time.Time) tea.Msg {
		return glideTickMsg{owner: c, gen: gen}
	})
	if cmd == nil {
		return glide
	}
	return tea.Batch(cmd, glide)
}

// advanceGlide moves one animation frame toward the bottom of content.
func (c *ChatView) advanceGlide(msg glideTickMsg) tea.Cmd {
	if msg.owner != c || msg.gen != c.glideGen {
		return nil
	}

	target := c.viewport.TotalLineCount() - c.viewport.Height()
	if target < 0 {
		target = 0
	}
	offset := c.viewport.YOffset()
	if offset >= target {
		return nil
	}

	// Ease out by covering a quarter of the remaining distance per frame.
	step := (target - offset + 3) / 4
	if step < 1 {
		step = 1
	}
	c.viewport.SetYOffset(offset + step)

	if c.viewport.YOffset() >= target {
		return nil
	}
	gen := msg.gen
	return tea.Tick(glideFrame, func(time.Time) tea.Msg {
		return glideTickMsg{owner: c, gen: gen}
	})
}

// invalidateCache forces a re-render of an item on the next layout pass.
func invalidateCache(item MessageItem) {
	switch it := item.(type) {
	case *UserMessageItem:
		it.cachedWidth = 0
	case *AssistantMessageItem:
		it.cachedWidth = 0
	case *ToolMessageItem:
		it.cachedWidth = 0
	}
}
