package publishers

import (
	"context"
	"errors"
	"testing"

	"github.com/samvad-hq/replies-relay/pkg/replies"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, ReplyEvent) error {
	s.calls++
	return s.err
}

type closingPublisher struct {
	stubPublisher
	closeErr error
}

func (c *closingPublisher) Close() error {
	c.closed = true
	return c.closeErr
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	ok := &stubPublisher{id: "ok", typ: "http"}
	bad := &stubPublisher{id: "bad", typ: "http", err: errors.New("failed")}
	fanout := NewFanout([]Publisher{ok, nil, bad})

	if fanout.Size() != 2 {
		t.Fatalf("expected nil publishers to be dropped, size %d", fanout.Size())
	}

	count, err := fanout.Publish(context.Background(), NewReplyEvent(replies.Reply{ReplyID: "r-1"}))
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("expected every publisher to be called once, got ok=%d bad=%d", ok.calls, bad.calls)
	}
}

func TestFanoutNilIsEmpty(t *testing.T) {
	var f *Fanout
	n, err := f.Publish(context.Background(), ReplyEvent{})
	if n != 0 || err != nil {
		t.Fatalf("nil fanout: n=%d err=%v", n, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestFanoutCloseOnlyClosers(t *testing.T) {
	c := &closingPublisher{stubPublisher: stubPublisher{id: "c", typ: "pubsub"}, closeErr: errors.New("boom")}
	plain := &stubPublisher{id: "p", typ: "http"}

	err := NewFanout([]Publisher{c, plain}).Close()
	if !c.closed {
		t.Fatalf("expected closer to be closed")
	}
	if err == nil {
		t.Fatalf("expected close error to surface")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com", Method: "POST", TimeoutSeconds: 1}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 || pubs[0].Type() != TypeHTTP {
		t.Fatalf("expected 1 http publisher, got %#v", pubs)
	}
}

func TestBuildAllUnknownTypeClosesBuilt(t *testing.T) {
	built := &closingPublisher{stubPublisher: stubPublisher{id: "first", typ: "fake"}}
	reg := NewRegistry(map[string]Builder{
		"fake": func(context.Context, PublisherConfig, Logger) (Publisher, error) { return built, nil },
	})

	_, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "first", Type: "fake"},
		{ID: "second", Type: "carrier-pigeon"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unregistered type")
	}
	if !built.closed {
		t.Fatalf("expected already built publisher to be closed")
	}
}
