package queue

import (
	"errors"
	"testing"
	"time"
)

// recorder captures submit/stop calls made by the queue.
type recorder struct {
	sent      []string
	stops     int
	submitErr error
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		Submit: func(content string) error {
			if r.submitErr != nil {
				return r.submitErr
			}
			r.sent = append(r.sent, content)
			return nil
		},
		Stop: func() { r.stops++ },
	}
}

func newBusyQueue(t *testing.T) (*Queue, *recorder, time.Time) {
	t.Helper()
	rec := &recorder{}
	q := New(rec.callbacks(), NewRuleDetector())
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	if err := q.SetAgentBusy(true, now); err != nil {
		t.Fatalf("SetAgentBusy: %v", err)
	}
	return q, rec, now
}

func contents(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

func assertOrder(t *testing.T, q *Queue, want ...string) {
	t.Helper()
	got := contents(q.Messages())
	if len(got) != len(want) {
		t.Fatalf("queue order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queue order = %v, want %v", got, want)
		}
	}
}

func TestSubmitWhileIdleSendsDirectly(t *testing.T) {
	rec := &recorder{}
	q := New(rec.callbacks(), NewRuleDetector())
	now := time.Now()

	queued, err := q.SubmitInput("hello", now)
	if err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if queued {
		t.Error("message should be sent directly while agent is idle")
	}
	if len(rec.sent) != 1 || rec.sent[0] != "hello" {
		t.Errorf("sent = %v", rec.sent)
	}
	if q.State() != StateEmpty {
		t.Errorf("state = %v, want empty", q.State())
	}
}

func TestSubmitWhileBusyQueues(t *testing.T) {
	q, rec, now := newBusyQueue(t)

	queued, err := q.SubmitInput("first", now)
	if err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if !queued {
		t.Error("message should be queued while agent is busy")
	}
	if len(rec.sent) != 0 {
		t.Errorf("nothing should be sent yet, sent = %v", rec.sent)
	}
	if q.State() != StateActive {
		t.Errorf("state = %v, want active", q.State())
	}
}

func TestSubmitTrimsAndDropsEmpty(t *testing.T) {
	q, rec, now := newBusyQueue(t)

	queued, err := q.SubmitInput("   \n  ", now)
	if err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}
	if queued || q.Len() != 0 || len(rec.sent) != 0 {
		t.Error("whitespace-only input should be a no-op")
	}
}

func TestInterruptionJumpsTheLine(t *testing.T) {
	q, rec, now := newBusyQueue(t)

	q.SubmitInput("A", now)
	q.SubmitInput("B", now)
	q.SubmitInput("stop, do the other thing", now)

	assertOrder(t, q, "stop, do the other thing", "A", "B")
	if !q.Paused() {
		t.Error("queue should pause on interruption")
	}
	if q.LastInterruption() != "stop" {
		t.Errorf("lastInterruption = %q, want %q", q.LastInterruption(), "stop")
	}
	if rec.stops != 1 {
		t.Errorf("stops = %d, want 1", rec.stops)
	}
	if q.State() != StatePaused {
		t.Errorf("state = %v, want paused", q.State())
	}
}

func TestPostInterruptionHold(t *testing.T) {
	q, rec, now := newBusyQueue(t)

	q.SubmitInput("A", now)
	q.SubmitInput("B", now)
	q.SubmitInput("stop", now)

	// Agent goes idle: the interruption is sent, the rest waits.
	if err := q.SetAgentBusy(false, now.Add(time.Second)); err != nil {
		t.Fatalf("SetAgentBusy: %v", err)
	}
	if len(rec.sent) != 1 || rec.sent[0] != "stop" {
		t.Fatalf("sent = %v, want [stop]", rec.sent)
	}
	assertOrder(t, q, "A", "B")
	if !q.Paused() {
		t.Error("pause should survive the interruption send")
	}
	if q.LastInterruption() != "" {
		t.Errorf("lastInterruption should clear after send, got %q", q.LastInterruption())
	}

	// A second idle transition must not auto-send A.
	q.SetAgentBusy(true, now.Add(2*time.Second))
	if err := q.SetAgentBusy(false, now.Add(3*time.Second)); err != nil {
		t.Fatalf("SetAgentBusy: %v", err)
	}
	if len(rec.sent) != 1 {
		t.Errorf("paused queue must not auto-advance, sent = %v", rec.sent)
	}
	assertOrder(t, q, "A", "B")
}

func TestResumeDrainsFIFO(t *testing.T) {
	q, rec, now := newBusyQueue(t)

	q.SubmitInput("A", now)
	q.SubmitInput("B", now)
	q.SubmitInput("stop", now)
	q.SetAgentBusy(false, now.Add(time.Second)) // sends the interruption

	if err := q.Resume(now.Add(2 * time.Second)); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if len(rec.sent) != 2 || rec.sent[1] != "A" {
		t.Fatalf("sent = %v, want interruption then A", rec.sent)
	}
	assertOrder(t, q, "B")
	if q.Paused() {
		t.Error("resume should clear pause")
	}

	// Next idle transition drains B.
	q.SetAgentBusy(true, now.Add(3*time.Second))
	q.SetAgentBusy(false, now.Add(4*time.Second))
	if len(rec.sent) != 3 || rec.sent[2] != "B" {
		t.Errorf("sent = %v, want B drained", rec.sent)
	}
	if q.State() != StateEmpty {
		t.Errorf("state = %v, want empty", q.State())
	}
}

func TestResumeWhileBusyDoesNotSend(t *testing.T) {
	q, rec, now := newBusyQueue(t)

	q.SubmitInput("A", now)
	q.SubmitInput("stop", now)

	if err := q.Resume(now.Add(time.Second)); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if len(rec.sent) != 0 {
		t.Errorf("resume while busy must not send, sent = %v", rec.sent)
	}
	if q.Paused() {
		t.Error("resume should clear pause")
	}
}

func TestSendNowOutOfOrder(t *testing.T) {
	q, rec, now := newBusyQueue(t)

	q.SubmitInput("A", now)
	q.SubmitInput("B", now)
	q.SubmitInput("C", now)

	msgs := q.Messages()
	if err := q.SendNow(msgs[1].ID, now.Add(time.Second)); err != nil {
		t.Fatalf("SendNow: %v", err)
	}

	if len(rec.sent) != 1 || rec.sent[0] != "B" {
		t.Errorf("sent = %v, want [B]", rec.sent)
	}
	if rec.stops != 1 {
		t.Errorf("stops = %d, want 1", rec.stops)
	}
	assertOrder(t, q, "A", "C")
}

func TestSendNowGraceBlocksIdleHandler(t *testing.T) {
	q, rec, now := newBusyQueue(t)

	q.SubmitInput("A", now)
	q.SubmitInput("B", now)

	msgs := q.Messages()
	if err := q.SendNow(msgs[1].ID, now); err != nil {
		t.Fatalf("SendNow: %v", err)
	}

	// The stop lands and the agent reports idle within the grace window;
	// the head must not be double-sent.
	q.SetAgentBusy(false, now.Add(100*time.Millisecond))
	if len(rec.sent) != 1 {
		t.Errorf("idle during grace must not send, sent = %v", rec.sent)
	}
	assertOrder(t, q, "A")

	// After the grace window the queue advances normally.
	q.SetAgentBusy(true, now.Add(200*time.Millisecond))
	q.SetAgentBusy(false, now.Add(time.Second))
	if len(rec.sent) != 2 || rec.sent[1] != "A" {
		t.Errorf("sent = %v, want A after grace", rec.sent)
	}
}

func TestSendNowUnknownID(t *testing.T) {
	q, _, now := newBusyQueue(t)
	if err := q.SendNow("nope", now); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestFailedSubmitRequeuesAtHead(t *testing.T) {
	q, rec, now := newBusyQueue(t)

	q.SubmitInput("A", now)
	q.SubmitInput("B", now)

	rec.submitErr = errors.New("backend down")
	if err := q.SetAgentBusy(false, now.Add(time.Second)); err == nil {
		t.Fatal("expected send error")
	}
	assertOrder(t, q, "A", "B")

	// Next attempt succeeds and sends the same head.
	rec.submitErr = nil
	q.SetAgentBusy(true, now.Add(2*time.Second))
	if err := q.SetAgentBusy(false, now.Add(3*time.Second)); err != nil {
		t.Fatalf("SetAgentBusy: %v", err)
	}
	if len(rec.sent) != 1 || rec.sent[0] != "A" {
		t.Errorf("sent = %v, want [A]", rec.sent)
	}
}

func TestClear(t *testing.T) {
	q, _, now := newBusyQueue(t)

	q.SubmitInput("A", now)
	q.SubmitInput("stop", now)
	q.Clear()

	if q.Len() != 0 || q.Paused() || q.LastInterruption() != "" {
		t.Error("clear should reset all queue state")
	}
	if q.State() != StateEmpty {
		t.Errorf("state = %v, want empty", q.State())
	}
}

func TestRemove(t *testing.T) {
	q, _, now := newBusyQueue(t)

	q.SubmitInput("A", now)
	q.SubmitInput("B", now)

	msgs := q.Messages()
	if !q.Remove(msgs[0].ID) {
		t.Fatal("Remove should succeed")
	}
	assertOrder(t, q, "B")

	if q.Remove("nope") {
		t.Error("removing unknown id should report false")
	}

	if !q.Remove(q.Messages()[0].ID) {
		t.Fatal("Remove should succeed")
	}
	if q.State() != StateEmpty {
		t.Errorf("state = %v, want empty", q.State())
	}
}

func TestRemoveInterruptionClearsPauseBookkeeping(t *testing.T) {
	q, _, now := newBusyQueue(t)

	q.SubmitInput("A", now)
	q.SubmitInput("stop", now)

	msgs := q.Messages()
	q.Remove(msgs[0].ID) // the interruption is at the head
	if q.LastInterruption() != "" {
		t.Error("removing the interruption should clear lastInterruption")
	}
}

func TestEdit(t *testing.T) {
	q, _, now := newBusyQueue(t)

	q.SubmitInput("draft", now)
	id := q.Messages()[0].ID

	if !q.Edit(id, "  final text  ") {
		t.Fatal("Edit should succeed")
	}
	if got := q.Messages()[0].Content; got != "final text" {
		t.Errorf("content = %q, want %q", got, "final text")
	}
	if q.Edit(id, "   ") {
		t.Error("editing to empty should be rejected")
	}
	if q.Edit("nope", "x") {
		t.Error("editing unknown id should report false")
	}
}

func TestReorder(t *testing.T) {
	q, _, now := newBusyQueue(t)

	q.SubmitInput("A", now)
	q.SubmitInput("B", now)
	q.SubmitInput("C", now)

	msgs := q.Messages()
	q.Reorder([]string{msgs[2].ID, msgs[0].ID})
	// C first, A second, B (unlisted) keeps its place at the tail.
	assertOrder(t, q, "C", "A", "B")

	q.Reorder([]string{"nope", msgs[1].ID})
	assertOrder(t, q, "B", "C", "A")
}
