package replies

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/replies-relay/pkg/httpclient"
	"github.com/samvad-hq/replies-relay/pkg/jsoncodec"
)

var errEmptyBody = errors.New("empty response body")

// Client calls the replies endpoints with the credentials bound at
// construction. It holds no per-call state and is safe for concurrent use.
type Client struct {
	cfg       Config
	transport httpclient.Client
	mapper    ObjectMapper
	log       Logger
}

// Option customises a Client.
type Option func(*Client)

// WithTransport replaces the default resty transport.
func WithTransport(t httpclient.Client) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithObjectMapper replaces the mapper used for check-replies payloads.
func WithObjectMapper(m ObjectMapper) Option {
	return func(c *Client) {
		if m != nil {
			c.mapper = m
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		mapper: NewObjectMapper(),
		log:    noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = httpclient.NewRestyClient(cfg.Timeout)
	}
	return c, nil
}

// BaseURI returns the normalized base URI the client targets.
func (c *Client) BaseURI() string { return c.cfg.BaseURI }

// CheckReplies fetches replies that have not been confirmed yet.
func (c *Client) CheckReplies(ctx context.Context) (*CheckRepliesResponse, error) {
	return c.checkReplies(ctx).Result()
}

// CheckRepliesAsync is the asynchronous form of CheckReplies. cb may be nil.
func (c *Client) CheckRepliesAsync(ctx context.Context, cb Callback[*CheckRepliesResponse]) *Future[*CheckRepliesResponse] {
	return dispatch(func() Outcome[*CheckRepliesResponse] { return c.checkReplies(ctx) }, cb)
}

// ConfirmRepliesAsReceived marks the given replies as processed. On success
// it returns the decoded response body as is (nil for an empty body).
func (c *Client) ConfirmRepliesAsReceived(ctx context.Context, req ConfirmRepliesRequest) (any, error) {
	return c.confirmReplies(ctx, req).Result()
}

// ConfirmRepliesAsReceivedAsync is the asynchronous form of
// ConfirmRepliesAsReceived. cb may be nil.
func (c *Client) ConfirmRepliesAsReceivedAsync(ctx context.Context, req ConfirmRepliesRequest, cb Callback[any]) *Future[any] {
	return dispatch(func() Outcome[any] { return c.confirmReplies(ctx, req) }, cb)
}

func (c *Client) checkReplies(ctx context.Context) Outcome[*CheckRepliesResponse] {
	return invoke(ctx, c, opCheckReplies, nil, c.decodeCheckReplies)
}

func (c *Client) confirmReplies(ctx context.Context, req ConfirmRepliesRequest) Outcome[any] {
	return invoke(ctx, c, opConfirmReplies, req, decodeJSON)
}

func (c *Client) decodeCheckReplies(body []byte) (*CheckRepliesResponse, error) {
	raw, err := decodeJSON(body)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errEmptyBody
	}

	var out CheckRepliesResponse
	if err := c.mapper.Map(raw, &out); err != nil {
		return nil, fmt.Errorf("map replies: %w", err)
	}
	return &out, nil
}

// decodeJSON parses body into a generic JSON value. An empty body yields nil.
func decodeJSON(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var v any
	if err := jsoncodec.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return v, nil
}
