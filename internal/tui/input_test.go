package tui

import (
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/driftlabs/driftline/internal/queue"
)

type inputRecorder struct {
	sent  []string
	stops int
}

func newTestInput(t *testing.T) (*ChatInput, *inputRecorder) {
	t.Helper()
	rec := &inputRecorder{}
	q := queue.New(queue.Callbacks{
		Submit: func(content string) error {
			rec.sent = append(rec.sent, content)
			return nil
		},
		Stop: func() { rec.stops++ },
	}, queue.NewRuleDetector())

	input := NewChatInput(q)
	input.SetSize(80, 4)
	input.SetFocus(true)
	return input, rec
}

func typeAndSubmit(t *testing.T, input *ChatInput, content string) InputSubmittedMsg {
	t.Helper()
	input.textarea.SetValue(content)
	cmd := input.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected a submit result for %q", content)
	}
	msg, ok := cmd().(InputSubmittedMsg)
	if !ok {
		t.Fatalf("expected InputSubmittedMsg, got %T", cmd())
	}
	return msg
}

func TestInputSubmitWhileIdleSendsDirectly(t *testing.T) {
	input, rec := newTestInput(t)

	msg := typeAndSubmit(t, input, "hello there")
	if msg.Queued || msg.Err != nil {
		t.Fatalf("submit = %+v, want direct send", msg)
	}
	if len(rec.sent) != 1 || rec.sent[0] != "hello there" {
		t.Errorf("sent = %v", rec.sent)
	}
	if input.Value() != "" {
		t.Error("expected the draft to clear after submit")
	}
}

func TestInputSubmitWhileBusyQueues(t *testing.T) {
	input, rec := newTestInput(t)
	input.queue.SetAgentBusy(true, time.Now())

	msg := typeAndSubmit(t, input, "first")
	if !msg.Queued {
		t.Fatal("expected the message to queue while busy")
	}
	if len(rec.sent) != 0 {
		t.Errorf("sent = %v, want none while busy", rec.sent)
	}
	if input.queue.Len() != 1 {
		t.Errorf("queue length = %d, want 1", input.queue.Len())
	}
}

func TestInputEmptyDraftIsNoop(t *testing.T) {
	input, rec := newTestInput(t)
	input.textarea.SetValue("   ")

	if cmd := input.Update(tea.KeyPressMsg{Code: tea.KeyEnter}); cmd != nil {
		t.Error("expected no submit for a blank draft")
	}
	if len(rec.sent) != 0 {
		t.Errorf("sent = %v, want none", rec.sent)
	}
}

func TestInputPillSelectionAndReorder(t *testing.T) {
	input, _ := newTestInput(t)
	now := time.Now()
	input.queue.SetAgentBusy(true, now)
	input.queue.SubmitInput("alpha", now)
	input.queue.SubmitInput("beta", now)
	input.queue.SubmitInput("gamma", now)

	input.moveSelection(1)
	if input.selected != 0 {
		t.Fatalf("selected = %d, want 0", input.selected)
	}
	input.moveSelection(1)

	input.reorderSelected(-1)
	items := input.queue.Messages()
	if items[0].Content != "beta" || items[1].Content != "alpha" {
		t.Errorf("order = [%s %s %s], want beta first", items[0].Content, items[1].Content, items[2].Content)
	}
	if input.selected != 0 {
		t.Errorf("selected = %d, want to follow the moved pill", input.selected)
	}
}

func TestInputRemoveSelectedPill(t *testing.T) {
	input, _ := newTestInput(t)
	now := time.Now()
	input.queue.SetAgentBusy(true, now)
	input.queue.SubmitInput("alpha", now)
	input.queue.SubmitInput("beta", now)

	input.selected = 1
	input.Update(tea.KeyPressMsg{Code: 'x', Mod: tea.ModAlt})

	if input.queue.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", input.queue.Len())
	}
	if input.queue.Messages()[0].Content != "alpha" {
		t.Error("expected beta to be removed")
	}
	if input.selected != 0 {
		t.Errorf("selected = %d, want clamped to 0", input.selected)
	}
}

func TestInputSendNowSelectedPill(t *testing.T) {
	input, rec := newTestInput(t)
	now := time.Now()
	input.queue.SetAgentBusy(true, now)
	input.queue.SubmitInput("alpha", now)
	input.queue.SubmitInput("beta", now)

	input.selected = 1
	input.Update(tea.KeyPressMsg{Code: 's', Mod: tea.ModAlt})

	if rec.stops != 1 {
		t.Errorf("stops = %d, want 1", rec.stops)
	}
	if len(rec.sent) != 1 || rec.sent[0] != "beta" {
		t.Errorf("sent = %v, want [beta]", rec.sent)
	}
	if input.queue.Len() != 1 || input.queue.Messages()[0].Content != "alpha" {
		t.Error("expected alpha to remain queued")
	}
}

func TestInputClearQueue(t *testing.T) {
	input, _ := newTestInput(t)
	now := time.Now()
	input.queue.SetAgentBusy(true, now)
	input.queue.SubmitInput("alpha", now)
	input.selected = 0

	input.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModAlt})

	if input.queue.Len() != 0 {
		t.Error("expected an empty queue after clear")
	}
	if input.selected != -1 {
		t.Errorf("selected = %d, want -1", input.selected)
	}
}

func TestInputEditorResultUpdatesDraft(t *testing.T) {
	input, _ := newTestInput(t)

	input.Update(editorFinishedMsg{content: "edited draft\n"})
	if got := input.Value(); got != "edited draft" {
		t.Errorf("Value() = %q, want edited draft", got)
	}
}

func TestInputEditorResultUpdatesQueuedItem(t *testing.T) {
	input, _ := newTestInput(t)
	now := time.Now()
	input.queue.SetAgentBusy(true, now)
	input.queue.SubmitInput("original", now)
	id := input.queue.Messages()[0].ID

	input.Update(editorFinishedMsg{itemID: id, content: "rewritten"})
	if got := input.queue.Messages()[0].Content; got != "rewritten" {
		t.Errorf("queued content = %q, want rewritten", got)
	}
}
