package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/errors"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/executor"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/registry"
)

// captureSink records every message handed to the outbound write path.
type captureSink struct {
	mu       sync.Mutex
	messages []protocol.Message
}

func (s *captureSink) SendMessage(msg protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *captureSink) responses() []*protocol.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*protocol.Response
	for _, msg := range s.messages {
		if resp, ok := msg.(*protocol.Response); ok {
			out = append(out, resp)
		}
	}
	return out
}

// inlineExecutor runs tasks synchronously so tests observe responses without
// polling. Production executors never run inline.
func inlineExecutor() executor.Executor {
	return executor.Func(func(task func()) { task() })
}

type testFixture struct {
	handlers *Handlers
	registry *registry.Registry
	sink     *captureSink
	state    *StateMachine
	dispatch *Dispatcher
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		handlers: NewHandlers(),
		registry: registry.New(nil),
		sink:     &captureSink{},
		state:    NewStateMachine(),
	}
	f.dispatch = New(f.handlers, f.registry, f.sink, f.state, Config{
		Executor: inlineExecutor(),
	})
	return f
}

func (f *testFixture) initialized(t *testing.T) *testFixture {
	t.Helper()
	require.NoError(t, f.state.Advance(PhaseInitialized))
	return f
}

func TestResponseResolvesPendingRequest(t *testing.T) {
	f := newFixture(t).initialized(t)

	pending, err := f.registry.RegisterOutgoing(protocol.NewIntID(7), "textDocument/hover")
	require.NoError(t, err)

	resp, err := protocol.NewResponse(protocol.NewIntID(7), map[string]string{"contents": "doc"})
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), resp)

	select {
	case outcome := <-pending.Done():
		require.NoError(t, outcome.Err)
		assert.JSONEq(t, `{"contents":"doc"}`, string(outcome.Result))
	case <-time.After(time.Second):
		t.Fatal("pending request was not resolved")
	}
}

func TestErrorResponseResolvesWithWireError(t *testing.T) {
	f := newFixture(t).initialized(t)

	pending, err := f.registry.RegisterOutgoing(protocol.NewIntID(8), "workspace/symbol")
	require.NoError(t, err)

	resp := protocol.NewErrorResponse(protocol.NewIntID(8),
		protocol.NewError(protocol.CodeContentModified, "content modified"))
	f.dispatch.Dispatch(context.Background(), resp)

	outcome := <-pending.Done()
	var rpcErr *protocol.Error
	require.ErrorAs(t, outcome.Err, &rpcErr)
	assert.Equal(t, protocol.CodeContentModified, rpcErr.Code)
}

func TestNullIDResponseDropped(t *testing.T) {
	f := newFixture(t).initialized(t)

	f.dispatch.Dispatch(context.Background(), &protocol.Response{
		JSONRPC: protocol.Version,
		Error:   protocol.NewError(protocol.CodeParseError, "parse error"),
	})

	assert.Empty(t, f.sink.responses())
	assert.Equal(t, 0, f.registry.OutgoingCount())
}

func TestRequestInvokesHandler(t *testing.T) {
	f := newFixture(t).initialized(t)

	f.handlers.RegisterRequest("textDocument/hover", func(ctx context.Context, params json.RawMessage, cancel *registry.CancelHandle) (interface{}, error) {
		var p struct {
			Position int `json:"position"`
		}
		require.NoError(t, json.Unmarshal(params, &p))
		return map[string]int{"echo": p.Position}, nil
	})

	req, err := protocol.NewRequest(protocol.NewIntID(1), "textDocument/hover", map[string]int{"position": 42})
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), req)

	responses := f.sink.responses()
	require.Len(t, responses, 1)
	assert.Nil(t, responses[0].Error)
	assert.JSONEq(t, `{"echo":42}`, string(responses[0].Result))
	assert.Equal(t, 0, f.registry.IncomingCount(), "in-flight entry removed after completion")
}

func TestRequestNilResultEncodesNull(t *testing.T) {
	f := newFixture(t).initialized(t)

	f.handlers.RegisterRequest("shutdown", func(ctx context.Context, params json.RawMessage, cancel *registry.CancelHandle) (interface{}, error) {
		return nil, nil
	})

	req, err := protocol.NewRequest(protocol.NewIntID(2), "shutdown", nil)
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), req)

	responses := f.sink.responses()
	require.Len(t, responses, 1)
	assert.Equal(t, "null", string(responses[0].Result))
}

func TestMethodNotFound(t *testing.T) {
	f := newFixture(t).initialized(t)

	req, err := protocol.NewRequest(protocol.NewIntID(3), "textDocument/definition", nil)
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), req)

	responses := f.sink.responses()
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, protocol.CodeMethodNotFound, responses[0].Error.Code)
	assert.Equal(t, protocol.NewIntID(3), *responses[0].ID)
}

func TestRequestBeforeInitializeRejected(t *testing.T) {
	f := newFixture(t)

	f.handlers.RegisterRequest("textDocument/hover", func(ctx context.Context, params json.RawMessage, cancel *registry.CancelHandle) (interface{}, error) {
		t.Fatal("handler must not run before initialization")
		return nil, nil
	})

	req, err := protocol.NewRequest(protocol.NewIntID(4), "textDocument/hover", nil)
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), req)

	responses := f.sink.responses()
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, protocol.CodeServerNotInitialized, responses[0].Error.Code)
}

func TestInitializeExemptFromGate(t *testing.T) {
	f := newFixture(t)

	f.handlers.RegisterRequest(protocol.MethodInitialize, func(ctx context.Context, params json.RawMessage, cancel *registry.CancelHandle) (interface{}, error) {
		return protocol.InitializeResult{}, nil
	})

	req, err := protocol.NewRequest(protocol.NewIntID(1), protocol.MethodInitialize, protocol.InitializeParams{})
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), req)

	responses := f.sink.responses()
	require.Len(t, responses, 1)
	assert.Nil(t, responses[0].Error)
}

func TestRequestDuringShutdownRejected(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.state.Advance(PhaseShuttingDown))

	req, err := protocol.NewRequest(protocol.NewIntID(5), "textDocument/hover", nil)
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), req)

	responses := f.sink.responses()
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, protocol.CodeInvalidRequest, responses[0].Error.Code)
	assert.Contains(t, responses[0].Error.Message, "shutting down")
}

func TestHandlerErrorBecomesErrorResponse(t *testing.T) {
	f := newFixture(t).initialized(t)

	f.handlers.RegisterRequest("textDocument/rename", func(ctx context.Context, params json.RawMessage, cancel *registry.CancelHandle) (interface{}, error) {
		return nil, errors.InvalidParams("textDocument/rename", assert.AnError)
	})

	req, err := protocol.NewRequest(protocol.NewIntID(6), "textDocument/rename", nil)
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), req)

	responses := f.sink.responses()
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, protocol.CodeInvalidParams, responses[0].Error.Code)
}

func TestContextCancellationMapsToRequestCancelled(t *testing.T) {
	f := newFixture(t).initialized(t)

	f.handlers.RegisterRequest("textDocument/references", func(ctx context.Context, params json.RawMessage, cancel *registry.CancelHandle) (interface{}, error) {
		return nil, context.Canceled
	})

	req, err := protocol.NewRequest(protocol.NewIntID(7), "textDocument/references", nil)
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), req)

	responses := f.sink.responses()
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, protocol.CodeRequestCancelled, responses[0].Error.Code)
}

func TestHandlerObservesCancellation(t *testing.T) {
	f := newFixture(t).initialized(t)

	started := make(chan struct{})
	cancelled := make(chan struct{})

	f.handlers.RegisterRequest("workspace/symbol", func(ctx context.Context, params json.RawMessage, cancel *registry.CancelHandle) (interface{}, error) {
		close(started)
		<-cancelled
		if cancel.Cancelled() {
			return nil, errors.RequestCancelled()
		}
		return "should not happen", nil
	})

	// this test needs real concurrency: the cancel notification arrives
	// while the handler is suspended
	f.dispatch.exec = executor.Goroutines()

	req, err := protocol.NewRequest(protocol.NewIntID(9), "workspace/symbol", nil)
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), req)

	<-started
	notif, err := protocol.NewNotification(protocol.MethodCancelRequest,
		protocol.CancelParams{ID: protocol.NewIntID(9)})
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), notif)
	close(cancelled)

	require.Eventually(t, func() bool {
		return len(f.sink.responses()) == 1
	}, time.Second, 5*time.Millisecond)

	responses := f.sink.responses()
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, protocol.CodeRequestCancelled, responses[0].Error.Code)
}

func TestCancelForCompletedRequestIgnored(t *testing.T) {
	f := newFixture(t).initialized(t)

	notif, err := protocol.NewNotification(protocol.MethodCancelRequest,
		protocol.CancelParams{ID: protocol.NewIntID(404)})
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), notif)

	assert.Empty(t, f.sink.responses())
}

func TestHandlerPanicProducesInternalError(t *testing.T) {
	f := newFixture(t).initialized(t)

	f.handlers.RegisterRequest("textDocument/hover", func(ctx context.Context, params json.RawMessage, cancel *registry.CancelHandle) (interface{}, error) {
		panic("handler bug")
	})

	req, err := protocol.NewRequest(protocol.NewIntID(10), "textDocument/hover", nil)
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), req)

	responses := f.sink.responses()
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, protocol.CodeInternalError, responses[0].Error.Code)
	assert.Equal(t, 0, f.registry.IncomingCount())
}

func TestNotificationInvokesHandler(t *testing.T) {
	f := newFixture(t).initialized(t)

	var got json.RawMessage
	f.handlers.RegisterNotification("textDocument/didOpen", func(ctx context.Context, params json.RawMessage) error {
		got = params
		return nil
	})

	notif, err := protocol.NewNotification("textDocument/didOpen", map[string]string{"uri": "file:///a.go"})
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), notif)

	assert.JSONEq(t, `{"uri":"file:///a.go"}`, string(got))
}

func TestUnhandledNotificationDroppedSilently(t *testing.T) {
	f := newFixture(t).initialized(t)

	notif, err := protocol.NewNotification("textDocument/didSave", nil)
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), notif)

	assert.Empty(t, f.sink.messages)
}

func TestNotificationDroppedBeforeInitialize(t *testing.T) {
	f := newFixture(t)

	f.handlers.RegisterNotification("textDocument/didOpen", func(ctx context.Context, params json.RawMessage) error {
		t.Fatal("handler must not run before initialization")
		return nil
	})

	notif, err := protocol.NewNotification("textDocument/didOpen", nil)
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), notif)

	assert.Empty(t, f.sink.messages)
}

func TestExemptNotificationPassesGate(t *testing.T) {
	f := newFixture(t)

	ran := false
	f.handlers.RegisterNotification(protocol.MethodExit, func(ctx context.Context, params json.RawMessage) error {
		ran = true
		return nil
	})

	notif, err := protocol.NewNotification(protocol.MethodExit, nil)
	require.NoError(t, err)
	f.dispatch.Dispatch(context.Background(), notif)

	assert.True(t, ran)
}

func TestNotificationPanicRecovered(t *testing.T) {
	f := newFixture(t).initialized(t)

	f.handlers.RegisterNotification("textDocument/didChange", func(ctx context.Context, params json.RawMessage) error {
		panic("handler bug")
	})

	notif, err := protocol.NewNotification("textDocument/didChange", nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		f.dispatch.Dispatch(context.Background(), notif)
	})
}
