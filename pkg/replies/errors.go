package replies

import (
	"errors"
	"fmt"
)

const (
	ReasonNoResponse     = "no response received"
	ReasonNotOK          = "HTTP response not OK"
	ReasonInvalidRequest = "invalid request"
)

// ClientError is returned when the service rejects a confirm request with
// HTTP 400. ErrorResponse holds the raw response body, unparsed.
//
//	var clientErr *replies.ClientError
//	if errors.As(err, &clientErr) {
//	    log.Printf("rejected: %s", clientErr.ErrorResponse)
//	}
type ClientError struct {
	Code          int
	Message       string
	ErrorResponse []byte
	Context       *RawContext
}

func (e *ClientError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("replies: client error (%d)", e.Code)
	}
	return fmt.Sprintf("replies: client error (%d): %s", e.Code, e.Message)
}

// TransportError covers calls where no response arrived (StatusCode 0) and
// responses whose status is not otherwise classified.
type TransportError struct {
	StatusCode int
	Reason     string
	Cause      error
	Context    *RawContext
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("replies: %s (%d)", e.Reason, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("replies: %s: %v", e.Reason, e.Cause)
	default:
		return "replies: " + e.Reason
	}
}

func (e *TransportError) Unwrap() error { return e.Cause }

// DeserializationError is returned when a successful response body could not
// be parsed or mapped onto the result type.
type DeserializationError struct {
	Operation string
	Cause     error
	Context   *RawContext
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("replies: decode %s response: %v", e.Operation, e.Cause)
}

func (e *DeserializationError) Unwrap() error { return e.Cause }

// ErrorKind names the class of a client error: "client", "transport",
// "deserialization" or "unknown". It returns "" for nil.
func ErrorKind(err error) string {
	var (
		clientErr    *ClientError
		transportErr *TransportError
		decodeErr    *DeserializationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &clientErr):
		return "client"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &decodeErr):
		return "deserialization"
	default:
		return "unknown"
	}
}

// StatusCode returns the HTTP status attached to err, or 0 when there is none.
func StatusCode(err error) int {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Code
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.StatusCode
	}
	return 0
}
