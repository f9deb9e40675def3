package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/driftlabs/driftline/internal/logger"
	"github.com/driftlabs/driftline/internal/nats"
	"github.com/gosimple/slug"
	"github.com/nats-io/nats.go/jetstream"
)

// Event represents a generic event stored in the JetStream event log.
// All session history (messages, agent control, presence) is stored as
// events following an append-only event sourcing pattern.
type Event struct {
	ID        string          `json:"id"`        // NATS message sequence ID
	Timestamp time.Time       `json:"timestamp"` // When the event occurred
	Session   string          `json:"session"`   // Session name
	Type      string          `json:"type"`      // Event type: message, control, presence
	Action    string          `json:"action"`    // Action type: add, chunk, final, agent_busy, agent_idle, join, leave
	Meta      json.RawMessage `json:"meta"`      // Action-specific metadata
	Data      string          `json:"data"`      // Primary content (message text, chunk text)
}

// Normalize converts a user-supplied session name into its canonical
// subject-safe form. NATS subjects cannot contain spaces or dots, so the
// name is slugified.
func Normalize(name string) string {
	return slug.Make(name)
}

// Store manages session state through JetStream event sourcing.
// It provides methods for publishing events and loading state from the event stream.
type Store struct {
	js     jetstream.JetStream
	stream jetstream.Stream
}

// NewStore creates a new Store instance with the given JetStream context and stream.
func NewStore(js jetstream.JetStream, stream jetstream.Stream) *Store {
	return &Store{
		js:     js,
		stream: stream,
	}
}

// PublishEvent appends an event to the JetStream event log.
// Events are published to subjects following the pattern: driftline.{session}.{type}
// Returns the published ACK or an error if publishing fails.
func (s *Store) PublishEvent(ctx context.Context, event Event) (*jetstream.PubAck, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event: %v", err)
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := nats.SubjectForEvent(event.Session, event.Type)

	logger.Debug("Publishing event: session=%s type=%s action=%s", event.Session, event.Type, event.Action)

	ack, err := s.js.Publish(ctx, subject, data)
	if err != nil {
		logger.Error("Failed to publish event to subject %s: %v", subject, err)
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}

	return ack, nil
}

// State represents the current state of a session, reconstructed from events.
// It implements the reduce pattern by applying events to build up the current state.
type State struct {
	Session      string              `json:"session"`
	Messages     []*Message          `json:"messages"`     // Chronological conversation
	Participants map[string]Presence `json:"participants"` // Client name -> presence
	AgentBusy    bool                `json:"agent_busy"`   // Agent currently streaming a response
	StopPending  bool                `json:"stop_pending"` // Stop requested, agent not yet idle

	index map[string]int // Message ID -> position in Messages
}

// Message represents a single conversation message.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user, assistant, tool
	Content   string    `json:"content"`
	Author    string    `json:"author,omitempty"` // Client that sent it (user messages)
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Final     bool      `json:"final"` // Streaming finished
}

// Presence records a participant's last known liveness.
type Presence struct {
	Client   string    `json:"client"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}

// NewState returns an empty state for a session.
func NewState(session string) *State {
	return &State{
		Session:      session,
		Participants: make(map[string]Presence),
		index:        make(map[string]int),
	}
}

// Message returns the message with the given ID, or nil.
func (st *State) Message(id string) *Message {
	if i, ok := st.index[id]; ok {
		return st.Messages[i]
	}
	return nil
}

// Apply applies an event to the state, implementing the reduce pattern.
// This method mutates the state based on the event type and action.
func (st *State) Apply(event Event) {
	if st.index == nil {
		st.index = make(map[string]int)
	}
	if st.Participants == nil {
		st.Participants = make(map[string]Presence)
	}
	switch event.Type {
	case nats.EventTypeMessage:
		st.applyMessageEvent(event)
	case nats.EventTypeControl:
		st.applyControlEvent(event)
	case nats.EventTypePresence:
		st.applyPresenceEvent(event)
	}
}

// applyMessageEvent handles message lifecycle events.
func (st *State) applyMessageEvent(event Event) {
	switch event.Action {
	case "add":
		var meta struct {
			MessageID string `json:"message_id"`
			Role      string `json:"role"`
			Author    string `json:"author"`
			Final     bool   `json:"final"`
		}
		json.Unmarshal(event.Meta, &meta)

		id := meta.MessageID
		if id == "" {
			id = event.ID
		}
		if meta.Role == "" {
			meta.Role = "user"
		}

		// Re-adds of a known ID update in place; replays must stay idempotent.
		if existing := st.Message(id); existing != nil {
			existing.Content = event.Data
			existing.UpdatedAt = event.Timestamp
			existing.Final = meta.Final
			return
		}

		msg := &Message{
			ID:        id,
			Role:      meta.Role,
			Content:   event.Data,
			Author:    meta.Author,
			CreatedAt: event.Timestamp,
			UpdatedAt: event.Timestamp,
			Final:     meta.Final,
		}
		st.index[id] = len(st.Messages)
		st.Messages = append(st.Messages, msg)

	case "chunk":
		var meta struct {
			MessageID string `json:"message_id"`
		}
		json.Unmarshal(event.Meta, &meta)

		if msg := st.Message(meta.MessageID); msg != nil && !msg.Final {
			msg.Content += event.Data
			msg.UpdatedAt = event.Timestamp
		}

	case "final":
		var meta struct {
			MessageID string `json:"message_id"`
		}
		json.Unmarshal(event.Meta, &meta)

		if msg := st.Message(meta.MessageID); msg != nil {
			msg.Final = true
			msg.UpdatedAt = event.Timestamp
		}
	}
}

// applyControlEvent handles agent control events.
func (st *State) applyControlEvent(event Event) {
	switch event.Action {
	case "agent_busy":
		st.AgentBusy = true
	case "agent_idle":
		st.AgentBusy = false
		st.StopPending = false
	case "stop_request":
		if st.AgentBusy {
			st.StopPending = true
		}
	}
}

// applyPresenceEvent handles participant join/leave events.
func (st *State) applyPresenceEvent(event Event) {
	var meta struct {
		Client string `json:"client"`
	}
	json.Unmarshal(event.Meta, &meta)
	if meta.Client == "" {
		return
	}

	switch event.Action {
	case "join":
		st.Participants[meta.Client] = Presence{
			Client:   meta.Client,
			Online:   true,
			LastSeen: event.Timestamp,
		}
	case "leave":
		st.Participants[meta.Client] = Presence{
			Client:   meta.Client,
			Online:   false,
			LastSeen: event.Timestamp,
		}
	}
}

// LoadState reconstructs the current state of a session by reading and reducing
// all events from the JetStream event log. This implements the event sourcing pattern.
func (s *Store) LoadState(ctx context.Context, session string) (*State, error) {
	logger.Debug("Loading state for session: %s", session)

	consumer, err := nats.CreateReplayConsumer(ctx, s.stream, session)
	if err != nil {
		logger.Error("Failed to create consumer for session %s: %v", session, err)
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	state := NewState(session)

	// Fetch events in batches and reduce into state.
	const batchSize = 1000
	malformedCount := 0
	totalEvents := 0
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			// No more messages or error, we've read everything available
			break
		}

		msgCount := 0
		for msg := range msgs.Messages() {
			msgCount++
			totalEvents++

			var event Event
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				// Skip malformed events but acknowledge them to prevent redelivery
				malformedCount++
				meta, _ := msg.Metadata()
				logger.Warn("Skipping malformed event (seq=%d): %v", meta.Sequence.Stream, err)
				msg.Ack()
				continue
			}

			if event.ID == "" {
				meta, _ := msg.Metadata()
				event.ID = fmt.Sprintf("%d", meta.Sequence.Stream)
			}

			state.Apply(event)
			msg.Ack()
		}

		if msgCount < batchSize {
			break
		}
	}

	if malformedCount > 0 {
		logger.Warn("Skipped %d malformed events while loading state", malformedCount)
	}

	logger.Debug("State loaded: %d total events, %d messages, %d participants",
		totalEvents, len(state.Messages), len(state.Participants))

	return state, nil
}
