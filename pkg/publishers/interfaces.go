package publishers

import "context"

// Publisher sends reply events to a downstream sink (SQS, HTTP, etc).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt ReplyEvent) error
}
