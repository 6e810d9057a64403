package replies

import (
	"context"
	"fmt"
	"net/http"

	"github.com/samvad-hq/replies-relay/pkg/httpclient"
	"github.com/samvad-hq/replies-relay/pkg/jsoncodec"
)

const (
	pathReplies          = "/v1/replies"
	pathRepliesConfirmed = "/v1/replies/confirmed"

	headerAccept      = "accept"
	headerContentType = "content-type"
	headerUserAgent   = "user-agent"

	mimeJSON     = "application/json"
	mimeJSONUTF8 = "application/json; charset=utf-8"
)

// operation describes how a remote call is addressed and classified.
type operation struct {
	name   string
	method string
	path   string
	// badRequestIsClientError routes HTTP 400 to a ClientError instead of
	// the generic not-OK path.
	badRequestIsClientError bool
}

var (
	opCheckReplies = operation{
		name:   "check_replies",
		method: http.MethodGet,
		path:   pathReplies,
	}
	opConfirmReplies = operation{
		name:                    "confirm_replies",
		method:                  http.MethodPost,
		path:                    pathRepliesConfirmed,
		badRequestIsClientError: true,
	}
)

// newRequest builds the outbound request for op. body is JSON encoded when
// non-nil.
func (c *Client) newRequest(op operation, body any) (httpclient.Request, error) {
	url, err := CleanURL(c.cfg.BaseURI, op.path)
	if err != nil {
		return httpclient.Request{}, err
	}

	req := httpclient.Request{
		Method: op.method,
		URL:    url,
		Headers: map[string]string{
			headerAccept:    mimeJSON,
			headerUserAgent: c.cfg.UserAgent,
		},
		BasicAuth: &httpclient.BasicAuth{
			Username: c.cfg.Username,
			Password: c.cfg.Password,
		},
	}
	if body != nil {
		payload, err := jsoncodec.Marshal(body)
		if err != nil {
			return httpclient.Request{}, fmt.Errorf("encode %s body: %w", op.name, err)
		}
		req.Headers[headerContentType] = mimeJSONUTF8
		req.Body = payload
	}
	return req, nil
}

// invoke builds and sends the request for op, then classifies the result.
func invoke[T any](ctx context.Context, c *Client, op operation, body any, decode func([]byte) (T, error)) Outcome[T] {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := c.newRequest(op, body)
	if err != nil {
		return Outcome[T]{
			Kind: OutcomeTransportError,
			Err:  &TransportError{Reason: ReasonInvalidRequest, Cause: err},
		}
	}

	c.log.DebugObj("replies request dispatched", "replies_request", map[string]any{
		"operation": op.name,
		"method":    req.Method,
		"url":       req.URL,
	})
	resp, err := c.transport.Do(ctx, req)
	return classify(op, req, resp, err, decode, c.log)
}
