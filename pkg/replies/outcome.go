package replies

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/samvad-hq/replies-relay/pkg/httpclient"
)

// OutcomeKind tags the result of a call.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeClientError
	OutcomeTransportError
	OutcomeDeserializationError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeClientError:
		return "client_error"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeDeserializationError:
		return "deserialization_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// RawContext is the transport-level detail behind an outcome. Request never
// carries credentials. StatusCode is 0 when no response was received.
type RawContext struct {
	Request    httpclient.Request
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Outcome is the tagged result of a single call. Err is nil only for
// OutcomeSuccess.
type Outcome[T any] struct {
	Kind    OutcomeKind
	Value   T
	Err     error
	Context *RawContext
}

// Result unpacks the outcome in (value, error) form.
func (o Outcome[T]) Result() (T, error) {
	return o.Value, o.Err
}

// Callback receives the outcome of an asynchronous call. err is nil on
// success; value is the zero value otherwise.
type Callback[T any] func(err error, value T, rc *RawContext)

// Future is the single-shot result of an asynchronous call. It moves from
// pending to settled exactly once.
type Future[T any] struct {
	done    chan struct{}
	once    sync.Once
	outcome Outcome[T]
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// settle stores o and reports whether this call was the one that settled f.
func (f *Future[T]) settle(o Outcome[T]) bool {
	settled := false
	f.once.Do(func() {
		f.outcome = o
		settled = true
		close(f.done)
	})
	return settled
}

// Done is closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the future settles or ctx is done. Returning early on
// ctx does not abort the call.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-f.done:
		return f.outcome.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Outcome returns the settled outcome, or false while the call is pending.
func (f *Future[T]) Outcome() (Outcome[T], bool) {
	select {
	case <-f.done:
		return f.outcome, true
	default:
		return Outcome[T]{}, false
	}
}

// dispatch runs call in its own goroutine, settles the returned future and
// then invokes cb, each exactly once.
func dispatch[T any](call func() Outcome[T], cb Callback[T]) *Future[T] {
	if cb == nil {
		cb = func(error, T, *RawContext) {}
	}
	f := newFuture[T]()
	go func() {
		out := guard(call)
		if f.settle(out) {
			cb(out.Err, out.Value, out.Context)
		}
	}()
	return f
}

// guard converts a panic inside call into a transport error outcome.
func guard[T any](call func() Outcome[T]) (out Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome[T]{
				Kind: OutcomeTransportError,
				Err:  &TransportError{Reason: "call panicked", Cause: fmt.Errorf("%v", r)},
			}
		}
	}()
	return call()
}
