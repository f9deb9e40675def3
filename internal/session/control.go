package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/driftlabs/driftline/internal/nats"
)

// AgentBusy records that the agent started producing a response.
// Creates an event of type "control" with action "agent_busy".
func (s *Store) AgentBusy(ctx context.Context, session string) error {
	event := Event{
		Session: session,
		Type:    nats.EventTypeControl,
		Action:  "agent_busy",
	}

	if _, err := s.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish agent busy event: %w", err)
	}
	return nil
}

// AgentIdle records that the agent finished (or aborted) its response.
// Creates an event of type "control" with action "agent_idle".
func (s *Store) AgentIdle(ctx context.Context, session string) error {
	event := Event{
		Session: session,
		Type:    nats.EventTypeControl,
		Action:  "agent_idle",
	}

	if _, err := s.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish agent idle event: %w", err)
	}
	return nil
}

// RequestStop asks the agent to abort the in-flight response.
// Creates an event of type "control" with action "stop_request". The agent
// acknowledges by eventually publishing agent_idle.
func (s *Store) RequestStop(ctx context.Context, session, reason string) error {
	event := Event{
		Session: session,
		Type:    nats.EventTypeControl,
		Action:  "stop_request",
		Data:    reason,
	}

	if _, err := s.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish stop request event: %w", err)
	}
	return nil
}

// Join announces a participant in the session.
// Creates an event of type "presence" with action "join".
func (s *Store) Join(ctx context.Context, session, client string) error {
	return s.publishPresence(ctx, session, client, "join")
}

// Leave announces a participant leaving the session.
// Creates an event of type "presence" with action "leave".
func (s *Store) Leave(ctx context.Context, session, client string) error {
	return s.publishPresence(ctx, session, client, "leave")
}

func (s *Store) publishPresence(ctx context.Context, session, client, action string) error {
	meta, err := json.Marshal(struct {
		Client string `json:"client"`
	}{Client: client})
	if err != nil {
		return fmt.Errorf("failed to marshal presence meta: %w", err)
	}

	event := Event{
		Session: session,
		Type:    nats.EventTypePresence,
		Action:  action,
		Meta:    meta,
	}

	if _, err := s.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish presence %s event: %w", action, err)
	}
	return nil
}
