package publishers

import (
	"context"
	"testing"

	"github.com/samvad-hq/replies-relay/pkg/replies"
)

type recordingLogger struct {
	noopLogger
	debug []string
}

func (r *recordingLogger) DebugObj(msg, _ string, _ any) { r.debug = append(r.debug, msg) }

func TestSinksShareRepliesLogger(t *testing.T) {
	var log replies.Logger = &recordingLogger{}
	client := &fakeSQS{}
	pub := &sqsPublisher{id: "queue", typ: TypeSQS, queueURL: "q", client: client, log: ensureLogger(log)}

	if err := pub.Publish(context.Background(), NewReplyEvent(replies.Reply{ReplyID: "r-1"})); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	rec := log.(*recordingLogger)
	if len(rec.debug) != 1 || rec.debug[0] != "sqs publisher delivered event" {
		t.Fatalf("expected delivery logged through shared logger, got %v", rec.debug)
	}
	if _, ok := ensureLogger(nil).(noopLogger); !ok {
		t.Fatalf("nil logger should fall back to noopLogger")
	}
}
