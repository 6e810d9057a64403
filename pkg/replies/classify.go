package replies

import (
	"errors"
	"net/http"

	"github.com/samvad-hq/replies-relay/pkg/httpclient"
)

var errNilResponse = errors.New("transport returned no response")

// classify turns the transport result into exactly one outcome:
//
//	no response           -> TransportError (StatusCode 0)
//	200..206              -> decode(body), DeserializationError on failure
//	400, confirm only     -> ClientError with the raw body
//	anything else         -> TransportError with the status
func classify[T any](op operation, req httpclient.Request, resp httpclient.Response, err error, decode func([]byte) (T, error), log Logger) Outcome[T] {
	req.BasicAuth = nil
	rc := &RawContext{Request: req}

	if err == nil && resp == nil {
		err = errNilResponse
	}
	if err != nil {
		log.WarnObj("replies request failed", "replies_transport_error", map[string]any{
			"operation": op.name,
			"url":       req.URL,
			"error":     err.Error(),
		})
		return Outcome[T]{
			Kind:    OutcomeTransportError,
			Err:     &TransportError{Reason: ReasonNoResponse, Cause: err, Context: rc},
			Context: rc,
		}
	}

	rc.StatusCode = resp.StatusCode()
	rc.Header = resp.Header()
	rc.Body = resp.Body()

	switch code := rc.StatusCode; {
	case code >= http.StatusOK && code <= http.StatusPartialContent:
		value, derr := decode(rc.Body)
		if derr != nil {
			log.WarnObj("replies response decode failed", "replies_decode_error", map[string]any{
				"operation": op.name,
				"status":    code,
				"error":     derr.Error(),
			})
			return Outcome[T]{
				Kind:    OutcomeDeserializationError,
				Err:     &DeserializationError{Operation: op.name, Cause: derr, Context: rc},
				Context: rc,
			}
		}
		return Outcome[T]{Kind: OutcomeSuccess, Value: value, Context: rc}

	case code == http.StatusBadRequest && op.badRequestIsClientError:
		return Outcome[T]{
			Kind:    OutcomeClientError,
			Err:     &ClientError{Code: code, ErrorResponse: rc.Body, Context: rc},
			Context: rc,
		}

	default:
		log.WarnObj("replies response not OK", "replies_status_error", map[string]any{
			"operation": op.name,
			"url":       req.URL,
			"status":    code,
		})
		return Outcome[T]{
			Kind:    OutcomeTransportError,
			Err:     &TransportError{StatusCode: code, Reason: ReasonNotOK, Context: rc},
			Context: rc,
		}
	}
}
