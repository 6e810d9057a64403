package httpclient

import (
	"context"
	"net/http"
)

// BasicAuth carries HTTP basic-auth credentials for a request.
type BasicAuth struct {
	Username string
	Password string
}

// Request describes a single outbound HTTP call.
type Request struct {
	Method    string
	URL       string
	Headers   map[string]string
	Body      []byte
	BasicAuth *BasicAuth
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// A non-nil error means no response was received.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}
