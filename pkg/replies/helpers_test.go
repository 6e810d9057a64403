package replies

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/replies-relay/pkg/httpclient"
)

const repliesFixture = `{
  "replies": [
    {
      "metadata": {"key1": "value1", "key2": "value2"},
      "message_id": "877c19ef-fa2e-4cec-827a-e1df9b5509f7",
      "reply_id": "a175e797-2b54-468b-9850-41a3eab32f74",
      "date_received": "2016-12-07T08:43:00.850Z",
      "callback_url": "https://my.callback.url.com",
      "destination_number": "+61491570156",
      "source_number": "+61491570157",
      "vendor_account_id": {"vendor_id": "MessageMedia", "account_id": "MyAccount1"},
      "content": "My first reply!"
    },
    {
      "metadata": {"key1": "value1"},
      "message_id": "8f2f5927-2e16-4f1c-bd43-47dbe2a77ae4",
      "reply_id": "3d8d53d8-01d3-45dd-8cfa-4dfc81600f7f",
      "date_received": "2016-12-07T08:43:00.850Z",
      "callback_url": "https://my.callback.url.com",
      "source_number": "+61491570158",
      "vendor_account_id": {"vendor_id": "MessageMedia", "account_id": "MyAccount1"},
      "content": "My second reply!"
    }
  ]
}`

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Do(ctx context.Context, req httpclient.Request) (httpclient.Response, error) {
	ret := m.Called(ctx, req)
	resp, _ := ret.Get(0).(httpclient.Response)
	return resp, ret.Error(1)
}

type stubResponse struct {
	status int
	body   []byte
	header http.Header
}

func (s stubResponse) Body() []byte        { return s.body }
func (s stubResponse) StatusCode() int     { return s.status }
func (s stubResponse) Header() http.Header { return s.header }

func newStubResponse(status int, body string) stubResponse {
	return stubResponse{status: status, body: []byte(body), header: http.Header{}}
}

func testConfig() Config {
	return Config{
		BaseURI:   "https://api.example.test/",
		Username:  "api-key",
		Password:  "api-secret",
		UserAgent: "replies-test/1.0",
	}
}

func newTestClient(t *testing.T, transport httpclient.Client) *Client {
	t.Helper()
	client, err := NewClient(testConfig(), WithTransport(transport))
	require.NoError(t, err)
	return client
}

// callbackRecorder counts callback invocations and keeps the last arguments.
type callbackRecorder[T any] struct {
	mu    sync.Mutex
	calls int
	err   error
	value T
	rc    *RawContext
	done  chan struct{}
}

func newCallbackRecorder[T any]() *callbackRecorder[T] {
	return &callbackRecorder[T]{done: make(chan struct{}, 8)}
}

func (r *callbackRecorder[T]) callback(err error, value T, rc *RawContext) {
	r.mu.Lock()
	r.calls++
	r.err, r.value, r.rc = err, value, rc
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *callbackRecorder[T]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
