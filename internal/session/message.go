package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/driftlabs/driftline/internal/nats"
)

type messageMeta struct {
	MessageID string `json:"message_id"`
	Role      string `json:"role,omitempty"`
	Author    string `json:"author,omitempty"`
	Final     bool   `json:"final,omitempty"`
}

// AddMessage appends a complete message to the session.
// Creates an event of type "message" with action "add". User messages are
// complete on arrival, so Final is set.
func (s *Store) AddMessage(ctx context.Context, session, messageID, role, author, content string) error {
	meta, err := json.Marshal(messageMeta{
		MessageID: messageID,
		Role:      role,
		Author:    author,
		Final:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message meta: %w", err)
	}

	event := Event{
		Session: session,
		Type:    nats.EventTypeMessage,
		Action:  "add",
		Meta:    meta,
		Data:    content,
	}

	if _, err := s.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish message add event: %w", err)
	}
	return nil
}

// OpenMessage starts a streaming message with empty content.
// Creates an event of type "message" with action "add" and Final unset;
// chunks append to it until FinalizeMessage.
func (s *Store) OpenMessage(ctx context.Context, session, messageID, role string) error {
	meta, err := json.Marshal(messageMeta{
		MessageID: messageID,
		Role:      role,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message meta: %w", err)
	}

	event := Event{
		Session: session,
		Type:    nats.EventTypeMessage,
		Action:  "add",
		Meta:    meta,
	}

	if _, err := s.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish message open event: %w", err)
	}
	return nil
}

// AppendChunk appends streamed content to an open message.
// Creates an event of type "message" with action "chunk".
func (s *Store) AppendChunk(ctx context.Context, session, messageID, chunk string) error {
	meta, err := json.Marshal(messageMeta{MessageID: messageID})
	if err != nil {
		return fmt.Errorf("failed to marshal chunk meta: %w", err)
	}

	event := Event{
		Session: session,
		Type:    nats.EventTypeMessage,
		Action:  "chunk",
		Meta:    meta,
		Data:    chunk,
	}

	if _, err := s.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish message chunk event: %w", err)
	}
	return nil
}

// FinalizeMessage marks a streaming message as complete.
// Creates an event of type "message" with action "final".
func (s *Store) FinalizeMessage(ctx context.Context, session, messageID string) error {
	meta, err := json.Marshal(messageMeta{MessageID: messageID})
	if err != nil {
		return fmt.Errorf("failed to marshal final meta: %w", err)
	}

	event := Event{
		Session: session,
		Type:    nats.EventTypeMessage,
		Action:  "final",
		Meta:    meta,
	}

	if _, err := s.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish message final event: %w", err)
	}
	return nil
}
