package publishers

import (
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/replies-relay/pkg/replies"
)

// EventSource tags every event emitted by this relay.
const EventSource = "replies-relay"

// ReplyEvent represents the payload published downstream for one reply.
type ReplyEvent struct {
	EventID     string        `json:"event_id"`
	Source      string        `json:"source"`
	Reply       replies.Reply `json:"reply"`
	ForwardedAt time.Time     `json:"forwarded_at"`
}

// NewReplyEvent constructs a ReplyEvent for the given reply.
func NewReplyEvent(reply replies.Reply) ReplyEvent {
	return ReplyEvent{
		EventID:     uuid.NewString(),
		Source:      EventSource,
		Reply:       reply,
		ForwardedAt: time.Now().UTC(),
	}
}

// attributes returns the routing attributes attached by queue-based sinks.
// Empty values are omitted since SQS and SNS reject them.
func (e ReplyEvent) attributes() map[string]string {
	attrs := map[string]string{
		"event_id": e.EventID,
		"reply_id": e.Reply.ReplyID,
	}
	if e.Reply.SourceNumber != "" {
		attrs["source_number"] = e.Reply.SourceNumber
	}
	if e.Reply.MessageID != "" {
		attrs["message_id"] = e.Reply.MessageID
	}
	for k, v := range attrs {
		if v == "" {
			delete(attrs, k)
		}
	}
	return attrs
}
