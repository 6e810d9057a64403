package relay

import (
	"context"

	"github.com/samvad-hq/replies-relay/pkg/publishers"
	"github.com/samvad-hq/replies-relay/pkg/replies"
)

// RepliesAPI is the subset of the replies client the relay drives.
type RepliesAPI interface {
	CheckReplies(ctx context.Context) (*replies.CheckRepliesResponse, error)
	ConfirmRepliesAsReceived(ctx context.Context, req replies.ConfirmRepliesRequest) (any, error)
}

// EventPublisher publishes reply events downstream and reports how many sinks
// accepted each one.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.ReplyEvent) (int, error)
	Size() int
}

// Ledger remembers replies already forwarded and which of them were
// confirmed.
type Ledger interface {
	SeenReply(id string) (bool, error)
	MarkReply(id string) error
	MarkConfirmed(ids []string) error
	Unconfirmed() ([]string, error)
}
