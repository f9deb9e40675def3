package tui

import (
	"strings"
	"testing"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/driftlabs/driftline/internal/session"
	"github.com/driftlabs/driftline/internal/tui/testfixtures"
)

func TestStatusBar_LeftShowsSessionName(t *testing.T) {
	status := NewStatusBar("chat-1")

	left := status.buildLeft()

	if !strings.Contains(left, "driftline") {
		t.Errorf("expected app name in left side, got %q", left)
	}
	if !strings.Contains(left, "chat-1") {
		t.Errorf("expected session name in left side, got %q", left)
	}
}

func TestStatusBar_SetSessionUpdatesLeft(t *testing.T) {
	status := NewStatusBar("chat-1")

	status.SetSession("planning")

	left := status.buildLeft()
	if !strings.Contains(left, "planning") {
		t.Errorf("expected new session name after SetSession, got %q", left)
	}
	if strings.Contains(left, "chat-1") {
		t.Errorf("expected old session name to be gone, got %q", left)
	}
}

func TestStatusBar_OnlineCountOnlyWhenMultiple(t *testing.T) {
	status := NewStatusBar("chat-1")

	st := session.NewState("chat-1")
	st.Participants["alice"] = session.Presence{Client: "alice", Online: true, LastSeen: time.Now()}
	status.SetState(st)

	if strings.Contains(status.buildLeft(), "online") {
		t.Error("expected no online count with a single participant")
	}

	st.Participants["bob"] = session.Presence{Client: "bob", Online: true, LastSeen: time.Now()}
	if !strings.Contains(status.buildLeft(), "2 online") {
		t.Errorf("expected '2 online' with two participants, got %q", status.buildLeft())
	}

	// Offline participants don't count.
	st.Participants["bob"] = session.Presence{Client: "bob", Online: false, LastSeen: time.Now()}
	if strings.Contains(status.buildLeft(), "online") {
		t.Error("expected no online count after a participant left")
	}
}

func TestStatusBar_QueueBadge(t *testing.T) {
	status := NewStatusBar("chat-1")

	if strings.Contains(status.buildRight(), "queued") {
		t.Error("expected no queue badge when queue is empty")
	}

	status.SetQueueStatus(3, false)
	right := status.buildRight()
	if !strings.Contains(right, "3 queued") {
		t.Errorf("expected '3 queued' badge, got %q", right)
	}
	if strings.Contains(right, "⏸") {
		t.Errorf("expected no pause marker while running, got %q", right)
	}

	status.SetQueueStatus(3, true)
	right = status.buildRight()
	if !strings.Contains(right, "⏸") {
		t.Errorf("expected pause marker while paused, got %q", right)
	}
}

func TestStatusBar_ConnectionIndicator(t *testing.T) {
	status := NewStatusBar("chat-1")
	status.SetSize(120, 1)

	status.SetConnectionStatus(true)
	if !strings.Contains(status.buildRight(), "connected") {
		t.Errorf("expected 'connected' label when wide, got %q", status.buildRight())
	}

	status.SetConnectionStatus(false)
	if !strings.Contains(status.buildRight(), "disconnected") {
		t.Errorf("expected 'disconnected' label when wide, got %q", status.buildRight())
	}
}

func TestStatusBar_ConnectionIndicatorNarrow(t *testing.T) {
	status := NewStatusBar("chat-1")
	status.SetSize(40, 1)
	status.SetConnectionStatus(true)

	right := status.buildRight()
	if strings.Contains(right, "connected") {
		t.Errorf("expected dot-only indicator when narrow, got %q", right)
	}
	if !strings.Contains(right, "●") {
		t.Errorf("expected connection dot when narrow, got %q", right)
	}
}

func TestStatusBar_SpinnerTicksOnlyWhenBusy(t *testing.T) {
	status := NewStatusBar("chat-1")

	// Idle: no state at all.
	if cmd := status.Update(statusPokeMsg{}); cmd != nil {
		t.Error("expected no tick command without session state")
	}

	st := session.NewState("chat-1")
	st.AgentBusy = true
	status.SetState(st)

	cmd := status.Update(statusPokeMsg{})
	if cmd == nil {
		t.Fatal("expected a tick command when the agent becomes busy")
	}

	// The chain only starts once per busy period.
	if cmd := status.Update(statusPokeMsg{}); cmd != nil {
		t.Error("expected no second tick start while already ticking")
	}

	// Going idle stops the chain; the next busy period restarts it.
	st.AgentBusy = false
	status.SetState(st)
	if cmd := status.Update(statusPokeMsg{}); cmd != nil {
		t.Error("expected no tick command while idle")
	}

	st.AgentBusy = true
	status.SetState(st)
	if cmd := status.Update(statusPokeMsg{}); cmd == nil {
		t.Error("expected tick chain to restart on the next busy period")
	}
}

func TestStatusBar_DrawRendersFullBar(t *testing.T) {
	status := NewStatusBar("chat-1")
	status.SetSize(80, 1)
	status.SetConnectionStatus(true)
	status.SetQueueStatus(2, false)

	out := testfixtures.RenderSized(t, 80, 1, func(scr uv.Screen, area uv.Rectangle) {
		status.Draw(scr, area)
	})

	plain := stripEscapes(out)
	for _, want := range []string{"driftline", "chat-1", "2 queued", "connected"} {
		if !strings.Contains(plain, want) {
			t.Errorf("rendered bar missing %q:\n%s", want, plain)
		}
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"tiny budget", "hello", 3, "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateString(tt.input, tt.maxWidth); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
		})
	}
}
