package agent

import (
	"context"
	"fmt"
	"time"

	ierr "github.com/driftlabs/driftline/internal/errors"
	"github.com/driftlabs/driftline/internal/logger"
	"github.com/driftlabs/driftline/internal/session"
)

// Client is the narrow interface the UI uses to talk to the agent backend.
// The agent process (local or remote) consumes the same event stream; the
// client only ever submits user messages and requests stops.
type Client struct {
	store   *session.Store
	session string
	author  string
}

// NewClient creates a client bound to one session.
func NewClient(store *session.Store, sessionName, author string) *Client {
	return &Client{
		store:   store,
		session: sessionName,
		author:  author,
	}
}

// Submit publishes a user message to the session stream. The agent picks it
// up from its own subscription; delivery to the stream is the success
// criterion here.
func (c *Client) Submit(ctx context.Context, content string) error {
	id := fmt.Sprintf("user-%d", time.Now().UnixNano())
	if err := c.store.AddMessage(ctx, c.session, id, "user", c.author, content); err != nil {
		// Publish failures are connection blips; the queue re-queues the
		// message, so the next drain retries.
		return ierr.NewTransientError(fmt.Errorf("submitting message: %w", err))
	}
	logger.Debug("Submitted message %s to session %s", id, c.session)
	return nil
}

// Stop requests that the agent abort its in-flight response.
func (c *Client) Stop(ctx context.Context, reason string) error {
	if err := c.store.RequestStop(ctx, c.session, reason); err != nil {
		return ierr.NewTransientError(fmt.Errorf("requesting stop: %w", err))
	}
	logger.Debug("Requested stop for session %s: %s", c.session, reason)
	return nil
}
