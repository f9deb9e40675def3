package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Subject pattern constants and helpers
const (
	streamName = "driftline_events"

	// Event types
	EventTypeMessage  = "message"
	EventTypeControl  = "control"
	EventTypePresence = "presence"
)

// SubjectForSession returns the wildcard subject pattern for all events in a session.
// Example: "driftline.mysession.>"
func SubjectForSession(session string) string {
	return fmt.Sprintf("driftline.%s.>", session)
}

// SubjectForEvent returns the specific subject for an event type in a session.
// Example: "driftline.mysession.message"
func SubjectForEvent(session, eventType string) string {
	return fmt.Sprintf("driftline.%s.%s", session, eventType)
}

// SetupStream creates or updates the JetStream stream for driftline events.
// The stream captures all events for all sessions with 30-day retention.
// Subject pattern: driftline.> matches all sessions and event types.
func SetupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"driftline.>"},
		Storage:  jetstream.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
}

// CreateReplayConsumer creates an ephemeral consumer that replays one
// session's event history from the beginning, for state reconstruction.
func CreateReplayConsumer(ctx context.Context, stream jetstream.Stream, session string) (jetstream.Consumer, error) {
	return stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: SubjectForSession(session),
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
}
