package publishers

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub/pstest"

	"github.com/samvad-hq/replies-relay/pkg/jsoncodec"
	"github.com/samvad-hq/replies-relay/pkg/replies"
)

func TestPubSubPublisherPublishes(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	pub, err := newPubSubPublisher(ctx, PublisherConfig{
		ID:     "gcp",
		Type:   TypePubSub,
		PubSub: &PubSubPublisherConfig{ProjectID: "test-project", Topic: "replies"},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubPublisher: %v", err)
	}
	ps := pub.(*pubsubPublisher)
	if _, err := ps.client.CreateTopic(ctx, "replies"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	evt := NewReplyEvent(replies.Reply{ReplyID: "r-1", SourceNumber: "+61491570156"})
	if err := pub.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := ps.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Attributes["reply_id"] != "r-1" {
		t.Fatalf("reply_id attribute missing: %#v", msgs[0].Attributes)
	}
	var got ReplyEvent
	if err := jsoncodec.Unmarshal(msgs[0].Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.EventID != evt.EventID {
		t.Fatalf("event id = %q, want %q", got.EventID, evt.EventID)
	}
}

func TestPubSubPublisherRequiresConfig(t *testing.T) {
	if _, err := newPubSubPublisher(context.Background(), PublisherConfig{ID: "gcp", Type: TypePubSub}, nil); err == nil {
		t.Fatalf("expected error for missing pubsub block")
	}
}
