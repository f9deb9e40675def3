package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	lipglossv2 "charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/nats-io/nats.go"

	"github.com/driftlabs/driftline/internal/agent"
	"github.com/driftlabs/driftline/internal/config"
	ierr "github.com/driftlabs/driftline/internal/errors"
	"github.com/driftlabs/driftline/internal/logger"
	"github.com/driftlabs/driftline/internal/queue"
	"github.com/driftlabs/driftline/internal/session"
	"github.com/driftlabs/driftline/internal/state"
	"github.com/driftlabs/driftline/internal/tui/theme"
)

// App is the main Bubbletea model. It owns the tab set, routes input between
// the transcript and the composer, and fans session events out to the tab
// they belong to.
type App struct {
	// View components
	tabs   *TabSet
	status *StatusBar
	dialog *Dialog
	toast  *Toast

	// Per-session state reduced from the event stream
	states map[string]*session.State

	store   *session.Store
	cfg     *config.Config
	uiState *state.UIState
	nc      *nats.Conn
	ctx     context.Context

	width     int
	height    int
	sizeDirty bool
	quitting  bool

	eventChan chan session.Event
}

// NewApp creates the TUI application. Tabs are restored from the persisted
// UI state; when none exist, a single tab for the configured session opens.
func NewApp(ctx context.Context, store *session.Store, cfg *config.Config, nc *nats.Conn) *App {
	uiState := state.Load(cfg.DataDir)

	a := &App{
		tabs:      NewTabSet(),
		dialog:    NewDialog(),
		toast:     NewToast(),
		states:    make(map[string]*session.State),
		store:     store,
		cfg:       cfg,
		uiState:   uiState,
		nc:        nc,
		ctx:       ctx,
		sizeDirty: true,
		eventChan: make(chan session.Event, 1000), // needs capacity for replay bursts
	}

	sessions := uiState.Tabs.Sessions
	if len(sessions) == 0 {
		name := cfg.Session
		if name == "" {
			name = "chat-1"
		}
		sessions = []string{session.Normalize(name)}
	}
	for _, name := range sessions {
		a.tabs.Add(a.openTab(name))
	}
	a.tabs.SetActive(uiState.Tabs.Active)

	a.status = NewStatusBar(a.tabs.Active().Session)
	a.setFocus(a.tabs.Active(), true)

	return a
}

// openTab builds the components for one session tab. Each tab gets its own
// send queue wired to an agent client for that session.
func (a *App) openTab(sessionName string) *Tab {
	client := agent.NewClient(a.store, sessionName, a.cfg.Author)

	q := queue.New(queue.Callbacks{
		Submit: func(content string) error {
			return client.Submit(a.ctx, content)
		},
		Stop: func() {
			if err := client.Stop(a.ctx, "superseded by new input"); err != nil {
				logger.Warn("stop request failed: %v", err)
			}
		},
	}, queue.NewRuleDetector())

	return &Tab{
		Session: sessionName,
		View:    NewChatView(a.intelligentScroll(), a.scrollOptions()),
		Input:   NewChatInput(q),
	}
}

// intelligentScroll resolves the effective scroll mode. Config gates the
// feature; the persisted UI state carries the user's runtime toggle.
func (a *App) intelligentScroll() bool {
	return a.cfg.Scroll.Intelligent && a.uiState.Scroll.Intelligent
}

// scrollOptions maps config to coordinator options. Zero values fall back to
// the coordinator defaults.
func (a *App) scrollOptions() CoordinatorOptions {
	sc := a.cfg.Scroll
	mode := sc.GracefulReturn
	if a.uiState.Scroll.GracefulReturn != "" {
		mode = a.uiState.Scroll.GracefulReturn
	}
	return CoordinatorOptions{
		IdleTimeout:         time.Duration(sc.IdleTimeoutMs) * time.Millisecond,
		ActivityDebounce:    time.Duration(sc.ActivityDebounceMs) * time.Millisecond,
		AutoScrollDelay:     time.Duration(sc.AutoScrollDelayMs) * time.Millisecond,
		GracefulReturnDelay: time.Duration(sc.GracefulReturnDelayMs) * time.Millisecond,
		NearBottomLines:     sc.NearBottomLines,
		VelocityThreshold:   sc.VelocityThreshold,
		GracefulReturn:      mode,
	}
}

// Init initializes the application and returns any initial commands.
// In Bubbletea v2, Init returns only tea.Cmd (not Model).
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.subscribeToEvents(),
		a.waitForEvents(),
		a.checkConnectionHealth(),
		a.tabs.Active().Input.Focus(),
	}
	for _, tab := range a.tabs.Tabs() {
		cmds = append(cmds, a.loadState(tab.Session), a.joinSession(tab.Session))
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return a.handleKeyPress(msg)

	case tea.PasteMsg:
		tab := a.tabs.Active()
		if tab != nil && tab.Input.IsFocused() && !a.dialog.IsVisible() {
			return a, tab.Input.Update(tea.PasteMsg{Content: SanitizePaste(msg.Content)})
		}
		return a, nil

	case tea.MouseClickMsg:
		return a.handleMouse(msg)

	case tea.MouseWheelMsg:
		return a.handleMouseWheel(msg)

	case tea.MouseMotionMsg:
		tab := a.tabs.Active()
		if tab != nil {
			mouse := msg.Mouse()
			if tab.View.IsViewportArea(mouse.X, mouse.Y) {
				return a, tab.View.RecordMotion()
			}
		}
		return a, nil

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.sizeDirty = true
		a.propagateSizes()
		return a, nil

	case EventMsg:
		return a, tea.Batch(a.applyEvent(msg.Event), a.waitForEvents())

	case StateUpdateMsg:
		return a, a.applyState(msg.Session, msg.State)

	case ConnectionStatusMsg:
		a.status.SetConnectionStatus(msg.Connected)
		return a, a.checkConnectionHealth()

	case InputSubmittedMsg:
		if msg.Err != nil {
			if ierr.IsTransient(msg.Err) {
				return a, a.toast.ShowError(fmt.Sprintf("send failed, message re-queued: %v", msg.Err))
			}
			return a, a.toast.ShowError(fmt.Sprintf("send failed: %v", msg.Err))
		}
		a.sizeDirty = true // queue pills may have appeared
		return a, nil

	case ShowToastMsg:
		if msg.IsError {
			return a, a.toast.ShowError(msg.Text)
		}
		return a, a.toast.Show(msg.Text)
	}

	// Spinner and timer traffic. Coordinator and glide ticks go to every
	// tab; stale generations are no-ops, so cross-tab delivery is harmless.
	cmds := []tea.Cmd{a.status.Update(msg), a.toast.Update(msg)}
	for _, tab := range a.tabs.Tabs() {
		cmds = append(cmds, tab.View.Update(msg))
	}
	if tab := a.tabs.Active(); tab != nil {
		cmds = append(cmds, tab.Input.Update(msg))
	}
	return a, tea.Batch(cmds...)
}

// handleKeyPress routes keyboard input. Priority: global keys, then the
// focused component of the active tab.
func (a *App) handleKeyPress(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	tab := a.tabs.Active()

	if msg.String() == "ctrl+c" {
		return a, a.quit()
	}

	// Dialog consumes everything else while visible.
	if a.dialog.IsVisible() {
		return a, a.dialog.Update(msg)
	}

	switch msg.String() {
	case "ctrl+t":
		return a, a.newTab()

	case "ctrl+w":
		if tab != nil && tab.Input.Queue().Len() > 0 {
			n := tab.Input.Queue().Len()
			a.dialog.Show(
				"Close Tab",
				fmt.Sprintf("%d queued message(s) will be discarded.", n),
				func() tea.Cmd {
					a.closeActiveTab()
					return nil
				},
			)
			return a, nil
		}
		a.closeActiveTab()
		return a, nil

	case "ctrl+right", "ctrl+pgdown":
		a.switchTab(func() { a.tabs.Next() })
		return a, nil

	case "ctrl+left", "ctrl+pgup":
		a.switchTab(func() { a.tabs.Prev() })
		return a, nil

	case "esc":
		// Cascade: pill selection, then message pin, then focus toggle.
		if tab.Input.IsFocused() && tab.Input.HasSelection() {
			return a, tab.Input.Update(msg)
		}
		if tab.View.UnlockPin() {
			return a, nil
		}
		if tab.Input.IsFocused() {
			a.setFocus(tab, false)
			return a, nil
		}
		a.setFocus(tab, true)
		return a, tab.Input.Focus()

	case "pgup", "pgdown":
		// Transcript paging works even while composing.
		if tab.Input.IsFocused() {
			page := tab.View.Snapshot().VisibleLines - 1
			if page < 1 {
				page = 1
			}
			if msg.String() == "pgup" {
				page = -page
			}
			return a, tab.View.ScrollBy(page)
		}

	case "ctrl+end":
		tab.View.JumpToLatest()
		return a, nil
	}

	if tab.Input.IsFocused() {
		return a, tab.Input.Update(msg)
	}

	switch msg.String() {
	case "i", "enter":
		a.setFocus(tab, true)
		return a, tab.Input.Focus()
	}
	return a, tab.View.Update(msg)
}

// handleMouse processes mouse clicks using coordinate-based hit detection.
// Clicks also move focus to the component under the cursor.
func (a *App) handleMouse(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	if mouse.Button != tea.MouseLeft {
		return a, nil
	}

	if a.dialog.IsVisible() {
		return a, a.dialog.HandleClick(mouse.X, mouse.Y)
	}

	if a.tabs.HandleClick(mouse.X, mouse.Y) {
		a.onTabSwitched()
		return a, nil
	}

	tab := a.tabs.Active()
	if tab == nil {
		return a, nil
	}

	if tab.Input.IsInputAreaClick(mouse.X, mouse.Y) {
		a.setFocus(tab, true)
		return a, tab.Input.Focus()
	}

	if tab.View.IsViewportArea(mouse.X, mouse.Y) {
		a.setFocus(tab, false)
		return a, tab.View.HandleClick(mouse.X, mouse.Y)
	}

	return a, nil
}

// handleMouseWheel scrolls the transcript under the cursor.
func (a *App) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()

	const scrollLines = 3

	var lines int
	switch mouse.Button {
	case tea.MouseWheelUp:
		lines = -scrollLines
	case tea.MouseWheelDown:
		lines = scrollLines
	default:
		return a, nil
	}

	tab := a.tabs.Active()
	if tab != nil && tab.View.IsViewportArea(mouse.X, mouse.Y) {
		return a, tab.View.ScrollBy(lines)
	}
	return a, nil
}

// setFocus gives focus to either the composer or the transcript of a tab.
func (a *App) setFocus(tab *Tab, input bool) {
	if tab == nil {
		return
	}
	tab.Input.SetFocus(input)
	tab.View.SetFocus(!input)
}

// newTab opens a fresh session tab and starts loading its history.
func (a *App) newTab() tea.Cmd {
	name := a.nextSessionName()
	tab := a.openTab(name)
	a.tabs.Add(tab)
	a.onTabSwitched()
	a.sizeDirty = true
	a.propagateSizes()
	a.saveUIState()
	return tea.Batch(a.loadState(name), a.joinSession(name), tab.Input.Focus())
}

// nextSessionName picks the first chat-N name not already open.
func (a *App) nextSessionName() string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("chat-%d", n)
		if a.tabs.Find(name) < 0 {
			return name
		}
	}
}

// closeActiveTab closes the current tab. The last tab stays open.
func (a *App) closeActiveTab() {
	closed := a.tabs.CloseActive()
	if closed == nil {
		return
	}
	go func(name string) {
		err := ierr.Recover(func() error {
			return a.store.Leave(a.ctx, name, a.cfg.Author)
		})
		if err != nil {
			logger.Warn("failed to leave session %s: %v", name, err)
		}
	}(closed.Session)
	a.onTabSwitched()
	a.sizeDirty = true
	a.saveUIState()
}

func (a *App) switchTab(move func()) {
	move()
	a.onTabSwitched()
}

// onTabSwitched refreshes the status bar for the newly active tab and makes
// sure exactly its composer is focused.
func (a *App) onTabSwitched() {
	tab := a.tabs.Active()
	if tab == nil {
		return
	}
	for _, other := range a.tabs.Tabs() {
		if other != tab {
			other.Input.SetFocus(false)
			other.View.SetFocus(false)
		}
	}
	a.setFocus(tab, true)
	if a.status != nil {
		a.status.SetSession(tab.Session)
		a.status.SetState(a.states[tab.Session])
	}
	a.saveUIState()
}

// applyEvent reduces one event into the per-session state and pushes the
// result to the owning tab.
func (a *App) applyEvent(event session.Event) tea.Cmd {
	st, ok := a.states[event.Session]
	if !ok {
		st = session.NewState(event.Session)
		a.states[event.Session] = st
	}
	st.Apply(event)

	idx := a.tabs.Find(event.Session)
	if idx < 0 {
		return nil
	}
	return a.pushState(a.tabs.Tabs()[idx], st)
}

// applyState replaces a session's state wholesale, from the initial load.
func (a *App) applyState(sessionName string, st *session.State) tea.Cmd {
	if st == nil {
		return nil
	}
	a.states[sessionName] = st

	idx := a.tabs.Find(sessionName)
	if idx < 0 {
		return nil
	}
	return a.pushState(a.tabs.Tabs()[idx], st)
}

// pushState propagates fresh session state into a tab's components and fans
// the agent busy flag into its send queue.
func (a *App) pushState(tab *Tab, st *session.State) tea.Cmd {
	var cmds []tea.Cmd

	cmds = append(cmds, tab.View.ApplyState(st))
	cmds = append(cmds, tab.View.SetStreaming(st.AgentBusy && !hasOpenAssistant(st)))

	// Busy edges drive the queue: idle drains the next queued message
	// through the submit callback.
	if err := tab.Input.Queue().SetAgentBusy(st.AgentBusy, time.Now()); err != nil {
		cmds = append(cmds, a.toast.ShowError(fmt.Sprintf("queued send failed: %v", err)))
	}

	if tab == a.tabs.Active() {
		a.status.SetState(st)
		cmds = append(cmds, a.status.Update(statusPokeMsg{}))
	}

	a.sizeDirty = true // pill row may appear or drain away
	return tea.Batch(cmds...)
}

// statusPokeMsg nudges the status bar so its spinner tick chain starts on
// busy transitions that arrive outside its own tick traffic.
type statusPokeMsg struct{}

// hasOpenAssistant reports whether the transcript ends in an assistant
// message that is still streaming. The thinking spinner shows only before
// the first token arrives.
func hasOpenAssistant(st *session.State) bool {
	if len(st.Messages) == 0 {
		return false
	}
	last := st.Messages[len(st.Messages)-1]
	return last.Role == "assistant" && !last.Final
}

// quit saves UI state, announces departure, and shuts the program down.
func (a *App) quit() tea.Cmd {
	a.quitting = true
	a.saveUIState()
	for _, tab := range a.tabs.Tabs() {
		go func(name string) {
			err := ierr.Recover(func() error {
				return a.store.Leave(a.ctx, name, a.cfg.Author)
			})
			if err != nil {
				logger.Warn("failed to leave session %s: %v", name, err)
			}
		}(tab.Session)
	}
	return tea.Quit
}

// saveUIState persists scroll preferences and the open tab set.
func (a *App) saveUIState() {
	mode := a.uiState.Scroll.GracefulReturn
	if mode == "" {
		mode = a.cfg.Scroll.GracefulReturn
	}
	snapshot := &state.UIState{
		Scroll: state.ScrollState{
			Intelligent:    a.uiState.Scroll.Intelligent,
			GracefulReturn: mode,
		},
		Tabs: state.TabsState{
			Sessions: a.tabs.Sessions(),
			Active:   a.tabs.ActiveIndex(),
		},
	}
	if err := state.Save(a.cfg.DataDir, snapshot); err != nil {
		logger.Warn("failed to save UI state: %v", err)
	}
}

// View renders the current view. In Bubbletea v2, this returns tea.View
// with display options like AltScreen and MouseMode.
func (a *App) View() tea.View {
	var view tea.View
	view.AltScreen = true
	view.MouseMode = tea.MouseModeCellMotion // clicks, wheel, and motion for the velocity gate
	view.ReportFocus = true
	view.KeyboardEnhancements = tea.KeyboardEnhancements{
		ReportEventTypes: true, // required for alt-chord queue keys
	}

	if a.quitting {
		// Exit alt screen for proper terminal restoration.
		view.AltScreen = false
		view.MouseMode = 0
		view.ReportFocus = false
		view.Content = lipglossv2.NewLayer("")
		return view
	}

	a.propagateSizes()
	a.syncStatus()

	canvas := uv.NewScreenBuffer(a.width, a.height)
	view.Cursor = a.Draw(canvas, canvas.Bounds())
	view.Content = lipglossv2.NewLayer(canvas.Render())
	view.BackgroundColor = theme.HexToColor(theme.Current().BgBase)

	return view
}

// syncStatus pulls queue and session figures for the active tab into the
// status bar.
func (a *App) syncStatus() {
	tab := a.tabs.Active()
	if tab == nil {
		return
	}
	q := tab.Input.Queue()
	a.status.SetQueueStatus(q.Len(), q.Paused())
}

// inputRows returns the height of a tab's composer region, including the
// pill row when messages are queued.
func inputRows(tab *Tab) int {
	rows := 4
	if tab.Input.Queue().Len() > 0 {
		rows++
	}
	return rows
}

// propagateSizes updates component sizes. Cheap to call; it only touches
// components when the window or the pill row changed.
func (a *App) propagateSizes() {
	if a.width <= 0 || a.height <= 0 {
		return
	}

	for _, tab := range a.tabs.Tabs() {
		rows := inputRows(tab)
		if !a.sizeDirty && rows == tab.inputRows {
			continue
		}
		tab.inputRows = rows

		// 1 row tab bar, 1 row status bar.
		viewHeight := a.height - 2 - rows
		if viewHeight < 1 {
			viewHeight = 1
		}
		tab.View.SetSize(a.width, viewHeight)
		tab.Input.SetSize(a.width, rows)
	}

	a.status.SetSize(a.width, 1)
	a.dialog.SetSize(a.width, a.height)
	a.sizeDirty = false
}

// Draw renders all components to the screen buffer.
func (a *App) Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor {
	tab := a.tabs.Active()
	if tab == nil {
		return nil
	}

	rows := inputRows(tab)
	barArea := uv.Rect(area.Min.X, area.Min.Y, area.Dx(), 1)
	viewArea := uv.Rect(area.Min.X, area.Min.Y+1, area.Dx(), area.Dy()-2-rows)
	inputArea := uv.Rect(area.Min.X, viewArea.Max.Y, area.Dx(), rows)
	statusArea := uv.Rect(area.Min.X, area.Max.Y-1, area.Dx(), 1)

	a.tabs.DrawBar(scr, barArea)
	cursor := tab.View.Draw(scr, viewArea)
	if c := tab.Input.Draw(scr, inputArea); c != nil {
		cursor = c
	}
	a.status.Draw(scr, statusArea)

	if a.dialog.IsVisible() {
		a.dialog.Draw(scr, area)
	}

	// Toast draws last so it sits on top of everything.
	if a.toast.IsVisible() {
		toastContent := a.toast.View(area.Dx(), area.Dy())
		if toastContent != "" {
			contentWidth := lipglossv2.Width(toastContent)
			contentHeight := lipglossv2.Height(toastContent)
			toastX := area.Max.X - contentWidth - 1
			toastY := area.Max.Y - 1 - contentHeight
			if toastX < area.Min.X {
				toastX = area.Min.X
			}
			if toastY < area.Min.Y {
				toastY = area.Min.Y
			}
			toastArea := uv.Rectangle{
				Min: uv.Position{X: toastX, Y: toastY},
				Max: uv.Position{X: toastX + contentWidth, Y: toastY + contentHeight},
			}
			uv.NewStyledString(toastContent).Draw(scr, toastArea)
		}
	}

	return cursor
}

// waitForEvents listens on the event channel and converts events to messages.
// This command recursively calls itself to continuously receive events.
func (a *App) waitForEvents() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-a.eventChan
		if !ok {
			return nil
		}
		return EventMsg{Event: event}
	}
}

// subscribeToEvents subscribes to live events for every session. Routing by
// session name happens in applyEvent, so one wildcard subscription covers
// all open tabs, present and future.
func (a *App) subscribeToEvents() tea.Cmd {
	return func() tea.Msg {
		sub, err := a.nc.Subscribe("driftline.>", func(msg *nats.Msg) {
			var event session.Event
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				// Skip malformed events
				return
			}

			select {
			case a.eventChan <- event:
			default:
				// Channel full, drop event
			}
		})

		if err != nil {
			return fmt.Errorf("failed to subscribe to events: %w", err)
		}

		// Clean up when context is cancelled
		<-a.ctx.Done()
		_ = sub.Unsubscribe()
		close(a.eventChan)

		return nil
	}
}

// loadState loads one session's state from the event log.
func (a *App) loadState(sessionName string) tea.Cmd {
	return func() tea.Msg {
		st, err := a.store.LoadState(a.ctx, sessionName)
		if err != nil {
			logger.Warn("failed to load state for %s: %v", sessionName, err)
			return ShowToastMsg{Text: fmt.Sprintf("failed to load %s", sessionName), IsError: true}
		}
		return StateUpdateMsg{Session: sessionName, State: st}
	}
}

// joinSession announces presence for one session.
func (a *App) joinSession(sessionName string) tea.Cmd {
	return func() tea.Msg {
		if err := a.store.Join(a.ctx, sessionName, a.cfg.Author); err != nil {
			logger.Warn("failed to join session %s: %v", sessionName, err)
		}
		return nil
	}
}

// checkConnectionHealth monitors NATS connection status and sends updates.
// It checks the connection every 2 seconds.
func (a *App) checkConnectionHealth() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		connected := a.nc != nil && a.nc.IsConnected()
		return ConnectionStatusMsg{Connected: connected}
	})
}

// StateUpdateMsg delivers a freshly loaded session state.
type StateUpdateMsg struct {
	Session string
	State   *session.State
}

// EventMsg delivers one live event from the NATS subscription.
type EventMsg struct {
	Event session.Event
}

// ConnectionStatusMsg is sent when NATS connection status changes.
type ConnectionStatusMsg struct {
	Connected bool
}
