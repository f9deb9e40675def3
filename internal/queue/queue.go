// Package queue implements the message send queue for a single chat input.
// Messages typed while the agent is busy are buffered in FIFO order and
// replayed one at a time on busy-to-idle transitions. Messages recognized as
// interruptions stop the agent, jump to the head of the queue, and pause
// replay of everything behind them until an explicit resume.
//
// The queue is a plain state machine owned by one chat input instance and
// driven from the UI event loop; it holds no timers and no goroutines. Time
// is passed in so transitions are deterministic under test.
package queue

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/driftlabs/driftline/internal/logger"
)

// Message is a single queued, not-yet-sent user message.
type Message struct {
	ID        string
	Content   string
	Timestamp time.Time
}

// State describes the queue as a whole.
type State int

const (
	StateEmpty  State = iota // no messages
	StateActive              // messages waiting, replay allowed
	StatePaused              // messages waiting, replay held until resume
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// InterruptDetector classifies a trimmed input as an interruption.
type InterruptDetector interface {
	Detect(text string) (shouldInterrupt bool, matched string)
}

// Callbacks are the external send interface. Submit may fail; Stop is
// fire-and-forget and assumed idempotent.
type Callbacks struct {
	Submit func(content string) error
	Stop   func()
}

// sendNowGrace blocks the idle-transition handler briefly after a send-now,
// so the response to the out-of-band send cannot double-send the head.
const sendNowGrace = 500 * time.Millisecond

// Queue is the send queue state machine.
type Queue struct {
	messages         []Message
	paused           bool
	lastInterruption string
	interruptionID   string

	agentBusy  bool
	graceUntil time.Time

	callbacks Callbacks
	detector  InterruptDetector
}

// New creates an empty queue wired to the external send interface.
func New(callbacks Callbacks, detector InterruptDetector) *Queue {
	return &Queue{
		callbacks: callbacks,
		detector:  detector,
	}
}

// Messages returns the queued messages in order, for rendering.
func (q *Queue) Messages() []Message {
	out := make([]Message, len(q.messages))
	copy(out, q.messages)
	return out
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	return len(q.messages)
}

// Paused reports whether replay is held.
func (q *Queue) Paused() bool {
	return q.paused
}

// LastInterruption returns the matched interruption text, or "" when none
// is outstanding.
func (q *Queue) LastInterruption() string {
	return q.lastInterruption
}

// State returns the queue state.
func (q *Queue) State() State {
	switch {
	case len(q.messages) == 0:
		return StateEmpty
	case q.paused:
		return StatePaused
	default:
		return StateActive
	}
}

// AgentBusy reports the last known agent state.
func (q *Queue) AgentBusy() bool {
	return q.agentBusy
}

// SetAgentBusy records an agent state transition. A busy-to-idle transition
// advances the queue.
func (q *Queue) SetAgentBusy(busy bool, now time.Time) error {
	wasBusy := q.agentBusy
	q.agentBusy = busy
	if wasBusy && !busy {
		return q.advance(now)
	}
	return nil
}

// SubmitInput handles a user pressing send. When the agent is idle the
// content goes straight out; when busy it is queued, with interruptions
// stopping the agent and jumping the line. Returns whether the message was
// queued (as opposed to sent) and any send error.
func (q *Queue) SubmitInput(content string, now time.Time) (queued bool, err error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return false, nil
	}

	if !q.agentBusy {
		if err := q.callbacks.Submit(content); err != nil {
			return false, fmt.Errorf("sending message: %w", err)
		}
		return false, nil
	}

	msg := Message{
		ID:        newID(now),
		Content:   content,
		Timestamp: now,
	}

	if q.detector != nil {
		if interrupt, matched := q.detector.Detect(content); interrupt {
			logger.Debug("Interruption detected: %q", matched)
			q.stop()
			q.paused = true
			q.lastInterruption = matched
			q.interruptionID = msg.ID
			q.messages = append([]Message{msg}, q.messages...)
			return true, nil
		}
	}

	if len(q.messages) == 0 {
		q.paused = false
	}
	q.messages = append(q.messages, msg)
	return true, nil
}

// advance is the busy-to-idle handler: it sends the head of the queue when
// replay is allowed. A paused queue still sends an outstanding interruption;
// after that the pause holds for whatever is behind it.
func (q *Queue) advance(now time.Time) error {
	if len(q.messages) == 0 {
		return nil
	}
	if now.Before(q.graceUntil) {
		return nil
	}
	if q.paused && q.lastInterruption == "" {
		return nil
	}

	head := q.messages[0]
	wasInterruption := head.ID == q.interruptionID

	q.messages = q.messages[1:]
	if err := q.callbacks.Submit(head.Content); err != nil {
		// Not sent: put it back so nothing is dropped.
		q.messages = append([]Message{head}, q.messages...)
		return fmt.Errorf("sending queued message: %w", err)
	}

	if wasInterruption {
		q.paused = true
		q.lastInterruption = ""
		q.interruptionID = ""
	}
	if len(q.messages) == 0 {
		q.paused = false
	}
	return nil
}

// SendNow sends an arbitrary queued message immediately, stopping the agent
// first. The queue's paused flag is untouched; a short grace window keeps
// the idle handler from also sending the head when the stop lands.
func (q *Queue) SendNow(id string, now time.Time) error {
	idx := q.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("no queued message with id %s", id)
	}

	msg := q.messages[idx]
	q.stop()
	q.graceUntil = now.Add(sendNowGrace)

	q.messages = append(q.messages[:idx], q.messages[idx+1:]...)
	if err := q.callbacks.Submit(msg.Content); err != nil {
		q.messages = append(q.messages[:idx], append([]Message{msg}, q.messages[idx:]...)...)
		return fmt.Errorf("sending queued message: %w", err)
	}

	if msg.ID == q.interruptionID {
		q.lastInterruption = ""
		q.interruptionID = ""
	}
	if len(q.messages) == 0 {
		q.paused = false
	}
	return nil
}

// Resume clears the pause and, when the agent is idle, immediately sends
// the head.
func (q *Queue) Resume(now time.Time) error {
	q.paused = false
	q.lastInterruption = ""
	q.interruptionID = ""
	if !q.agentBusy {
		return q.advance(now)
	}
	return nil
}

// Clear empties the queue and resets pause bookkeeping.
func (q *Queue) Clear() {
	q.messages = nil
	q.paused = false
	q.lastInterruption = ""
	q.interruptionID = ""
}

// Remove deletes one queued message.
func (q *Queue) Remove(id string) bool {
	idx := q.indexOf(id)
	if idx < 0 {
		return false
	}
	if id == q.interruptionID {
		q.lastInterruption = ""
		q.interruptionID = ""
	}
	q.messages = append(q.messages[:idx], q.messages[idx+1:]...)
	if len(q.messages) == 0 {
		q.paused = false
	}
	return true
}

// Edit replaces the content of a queued message in place.
func (q *Queue) Edit(id, content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}
	idx := q.indexOf(id)
	if idx < 0 {
		return false
	}
	q.messages[idx].Content = content
	return true
}

// Reorder rearranges the queue to match the given ID order. IDs not in the
// queue are ignored; queued messages missing from the order keep their
// relative position at the tail.
func (q *Queue) Reorder(order []string) {
	reordered := make([]Message, 0, len(q.messages))
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if idx := q.indexOf(id); idx >= 0 && !seen[id] {
			reordered = append(reordered, q.messages[idx])
			seen[id] = true
		}
	}
	for _, msg := range q.messages {
		if !seen[msg.ID] {
			reordered = append(reordered, msg)
		}
	}
	q.messages = reordered
}

func (q *Queue) indexOf(id string) int {
	for i, msg := range q.messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

// stop invokes the external stop callback. Failures are logged only; the
// user's intent to interrupt is honored in queue state regardless.
func (q *Queue) stop() {
	if q.callbacks.Stop == nil {
		return
	}
	q.callbacks.Stop()
}

func newID(now time.Time) string {
	return fmt.Sprintf("q-%d-%04d", now.UnixNano(), rand.Intn(10000))
}
