package replies

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/replies-relay/pkg/httpclient"
)

func waitCallback[T any](t *testing.T, rec *callbackRecorder[T]) {
	t.Helper()
	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("callback was not invoked")
	}
}

func TestConfirmRepliesAsync_SettlesExactlyOnce(t *testing.T) {
	testCases := []struct {
		name     string
		resp     httpclient.Response
		err      error
		wantKind OutcomeKind
	}{
		{name: "success", resp: newStubResponse(http.StatusOK, `{}`), wantKind: OutcomeSuccess},
		{name: "bad request", resp: newStubResponse(http.StatusBadRequest, `bad`), wantKind: OutcomeClientError},
		{name: "server error", resp: newStubResponse(http.StatusServiceUnavailable, ``), wantKind: OutcomeTransportError},
		{name: "network failure", err: errors.New("connection reset"), wantKind: OutcomeTransportError},
		{name: "malformed body", resp: newStubResponse(http.StatusOK, `{`), wantKind: OutcomeDeserializationError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &mockTransport{}
			transport.On("Do", mock.Anything, mock.Anything).Return(tc.resp, tc.err).Once()

			rec := newCallbackRecorder[any]()
			future := newTestClient(t, transport).ConfirmRepliesAsReceivedAsync(
				context.Background(), ConfirmRepliesRequest{ReplyIDs: []string{"a"}}, rec.callback)

			_, waitErr := future.Wait(context.Background())
			waitCallback(t, rec)

			out, ok := future.Outcome()
			require.True(t, ok)
			assert.Equal(t, tc.wantKind, out.Kind)
			assert.Equal(t, out.Err, waitErr)
			assert.Equal(t, out.Err, rec.err)
			if tc.wantKind == OutcomeSuccess {
				assert.NoError(t, rec.err)
			} else {
				assert.Error(t, rec.err)
				assert.Nil(t, rec.value)
			}

			// Give a stray second invocation a chance to show up.
			time.Sleep(20 * time.Millisecond)
			assert.Equal(t, 1, rec.count())
			assert.False(t, future.settle(Outcome[any]{Kind: OutcomeSuccess}), "future settled twice")
			transport.AssertExpectations(t)
		})
	}
}

func TestCheckRepliesAsync_DeliversValueToCallbackAndFuture(t *testing.T) {
	transport := &mockTransport{}
	transport.On("Do", mock.Anything, mock.Anything).Return(newStubResponse(http.StatusOK, repliesFixture), nil).Once()

	rec := newCallbackRecorder[*CheckRepliesResponse]()
	future := newTestClient(t, transport).CheckRepliesAsync(context.Background(), rec.callback)

	resp, err := future.Wait(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Replies, 2)

	waitCallback(t, rec)
	assert.Same(t, resp, rec.value)
	require.NotNil(t, rec.rc)
	assert.Equal(t, http.StatusOK, rec.rc.StatusCode)
	assert.Equal(t, 1, rec.count())
}

func TestAsyncWithNilCallback(t *testing.T) {
	transport := &mockTransport{}
	transport.On("Do", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused")).Once()

	future := newTestClient(t, transport).CheckRepliesAsync(context.Background(), nil)
	_, err := future.Wait(context.Background())

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	select {
	case <-future.Done():
	default:
		t.Fatalf("future not marked done after Wait returned")
	}
}

func TestFutureWaitHonoursContextWithoutSettling(t *testing.T) {
	release := make(chan struct{})
	transport := &mockTransport{}
	transport.On("Do", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(newStubResponse(http.StatusOK, `{}`), nil).Once()

	future := newTestClient(t, transport).ConfirmRepliesAsReceivedAsync(context.Background(), ConfirmRepliesRequest{ReplyIDs: []string{"a"}}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := future.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, settled := future.Outcome()
	assert.False(t, settled)

	close(release)
	_, err = future.Wait(context.Background())
	assert.NoError(t, err)
}

func TestGuardConvertsPanicToTransportError(t *testing.T) {
	out := guard(func() Outcome[int] { panic("boom") })
	assert.Equal(t, OutcomeTransportError, out.Kind)
	assert.ErrorContains(t, out.Err, "boom")
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "client_error", OutcomeClientError.String())
	assert.Equal(t, "transport_error", OutcomeTransportError.String())
	assert.Equal(t, "deserialization_error", OutcomeDeserializationError.String())
	assert.Equal(t, "outcome(9)", OutcomeKind(9).String())
}
