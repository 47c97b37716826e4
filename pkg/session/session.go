// Package session binds a stream, a codec, a registry and a dispatcher into
// one running protocol endpoint. A session is symmetric: both sides of the
// connection run the same type, differing only in the capabilities they
// register, so the same engine serves servers and clients alike.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/codec"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/dispatch"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/errors"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/executor"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/logging"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/middleware"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/registry"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/transport"
)

// Config carries the session collaborators. The zero value is usable: it
// logs nowhere, runs handlers on plain goroutines and applies the default
// framing limits and lifecycle gate.
type Config struct {
	Logger     logging.Logger
	Middleware []middleware.Middleware
	Executor   executor.Executor
	Codec      codec.Config
	Gate       dispatch.GateConfig
}

// Session is one running protocol endpoint over one stream.
type Session struct {
	id     string
	logger logging.Logger

	stream transport.Stream
	reader *codec.Reader
	writer *codec.Writer

	handlers *dispatch.Handlers
	registry *registry.Registry
	state    *dispatch.StateMachine
	dispatch *dispatch.Dispatcher
	mw       middleware.Middleware

	nextID atomic.Int64

	// exitHandler is the application hook wrapped by the built-in exit
	// notification handler, if any.
	exitHandler dispatch.NotificationHandler

	closeOnce sync.Once
}

// New creates a session over the stream. Handlers are registered on the
// returned session before Listen is called.
func New(stream transport.Stream, config Config) *Session {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Session{
		id:       uuid.NewString(),
		stream:   stream,
		reader:   codec.NewReader(stream, config.Codec),
		writer:   codec.NewWriter(stream),
		handlers: dispatch.NewHandlers(),
		state:    dispatch.NewStateMachine(),
	}
	s.logger = logger.WithFields(logging.String("session_id", s.id))
	s.registry = registry.New(s.logger)

	// The lifecycle middleware runs after the application's so state
	// advances only once the response is actually on its way out.
	chain := make(middleware.Chain, 0, len(config.Middleware)+1)
	chain = append(chain, config.Middleware...)
	chain = append(chain, &lifecycleMiddleware{state: s.state, logger: s.logger})
	s.mw = chain

	s.dispatch = dispatch.New(s.handlers, s.registry, sinkFunc(s.writer.WriteMessage), s.state, dispatch.Config{
		Logger:     s.logger,
		Middleware: s.mw,
		Executor:   config.Executor,
		Gate:       config.Gate,
	})

	s.handlers.RegisterNotification(protocol.MethodExit, s.handleExit)
	return s
}

// ID returns the unique identifier assigned to this session.
func (s *Session) ID() string { return s.id }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() dispatch.Phase { return s.state.Phase() }

// HandleRequest registers a request handler for a method.
func (s *Session) HandleRequest(method string, handler dispatch.RequestHandler) {
	s.handlers.RegisterRequest(method, handler)
}

// HandleNotification registers a notification handler for a method. The exit
// notification keeps its built-in lifecycle behavior; the given handler runs
// in addition to it.
func (s *Session) HandleNotification(method string, handler dispatch.NotificationHandler) {
	if method == protocol.MethodExit {
		s.exitHandler = handler
		return
	}
	s.handlers.RegisterNotification(method, handler)
}

// Listen runs the read loop until the stream ends, the peer exits the
// session or the context is cancelled. On return every still-pending
// outgoing request has been resolved with a connection-closed error and the
// stream is closed.
func (s *Session) Listen(ctx context.Context) error {
	defer s.teardown()

	g, gctx := errgroup.WithContext(ctx)
	loopDone := make(chan struct{})

	g.Go(func() error {
		defer close(loopDone)
		return s.readLoop(gctx)
	})

	// Closing the stream is the only way to unblock a pending Read.
	g.Go(func() error {
		select {
		case <-gctx.Done():
			s.closeStream()
			return gctx.Err()
		case <-loopDone:
			return nil
		}
	})

	return g.Wait()
}

func (s *Session) readLoop(ctx context.Context) error {
	for {
		messages, err := s.reader.ReadMessages()
		if err != nil {
			switch {
			case err == io.EOF:
				s.logger.Info("peer closed the stream")
				return nil
			case s.state.Phase() == dispatch.PhaseExited:
				// The exit handler closed the stream under us.
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.IsRecoverableFraming(err):
				s.logger.WithError(err).Warn("skipping undecodable frame")
				continue
			default:
				s.logger.WithError(err).Error("framing failure, terminating session")
				return err
			}
		}

		for _, msg := range messages {
			s.dispatch.Dispatch(ctx, msg)
		}

		if s.state.Phase() == dispatch.PhaseExited {
			return nil
		}
	}
}

// SendRequest sends a request to the peer and blocks until its response
// arrives, the connection closes, or ctx is done. When ctx is done first, a
// cancel notification is sent to the peer on a best-effort basis and the
// context error is returned; the eventual response resolves silently.
func (s *Session) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	id := protocol.NewIntID(s.nextID.Add(1))

	pending, err := s.registry.RegisterOutgoing(id, method)
	if err != nil {
		return nil, err
	}

	req, err := protocol.NewRequest(id, method, params)
	if err != nil {
		s.registry.Resolve(id, registry.Outcome{Err: err})
		return nil, err
	}

	s.mw.OnOutgoingRequest(req)
	if err := s.writer.WriteMessage(req); err != nil {
		s.registry.Resolve(id, registry.Outcome{Err: err})
		return nil, err
	}

	select {
	case outcome := <-pending.Done():
		if outcome.Err != nil {
			return nil, outcome.Err
		}
		return outcome.Result, nil
	case <-ctx.Done():
		if cancelErr := s.SendNotification(ctx, protocol.MethodCancelRequest, protocol.CancelParams{ID: id}); cancelErr != nil {
			s.logger.WithError(cancelErr).Debug("failed to send cancel notification",
				logging.String("id", id.String()))
		}
		return nil, ctx.Err()
	}
}

// Call sends a request and decodes its result into out. A nil out discards
// the result.
func (s *Session) Call(ctx context.Context, method string, params, out interface{}) error {
	result, err := s.SendRequest(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// SendNotification sends a one-way message to the peer.
func (s *Session) SendNotification(_ context.Context, method string, params interface{}) error {
	notif, err := protocol.NewNotification(method, params)
	if err != nil {
		return err
	}
	s.mw.OnOutgoingNotification(notif)
	return s.writer.WriteMessage(notif)
}

// Initialize performs the client side of the handshake: it sends the
// initialize request, advances the lifecycle on success and confirms with
// the initialized notification.
func (s *Session) Initialize(ctx context.Context, params protocol.InitializeParams) (*protocol.InitializeResult, error) {
	var result protocol.InitializeResult
	if err := s.Call(ctx, protocol.MethodInitialize, params, &result); err != nil {
		return nil, err
	}
	if err := s.state.Advance(dispatch.PhaseInitialized); err != nil {
		return nil, err
	}
	if err := s.SendNotification(ctx, protocol.MethodInitialized, protocol.InitializedParams{}); err != nil {
		return nil, err
	}
	return &result, nil
}

// Shutdown performs the client side of the teardown handshake: the shutdown
// request followed by the exit notification.
func (s *Session) Shutdown(ctx context.Context) error {
	if err := s.Call(ctx, protocol.MethodShutdown, nil, nil); err != nil {
		return err
	}
	if err := s.state.Advance(dispatch.PhaseShuttingDown); err != nil {
		return err
	}
	if err := s.SendNotification(ctx, protocol.MethodExit, nil); err != nil {
		return err
	}
	return s.state.Advance(dispatch.PhaseExited)
}

func (s *Session) handleExit(ctx context.Context, params json.RawMessage) error {
	if s.state.Phase() < dispatch.PhaseShuttingDown {
		s.logger.Warn("exit received before shutdown")
	}
	if err := s.state.Advance(dispatch.PhaseExited); err != nil {
		return err
	}
	if s.exitHandler != nil {
		if err := s.exitHandler(ctx, params); err != nil {
			s.logger.WithError(err).Warn("exit handler failed")
		}
	}
	// Unblock the read loop.
	s.closeStream()
	return nil
}

func (s *Session) teardown() {
	drained := s.registry.Drain()
	if len(drained) > 0 {
		s.logger.Warn("session closed with unanswered requests",
			logging.Int("count", len(drained)))
	}
	s.closeStream()
}

func (s *Session) closeStream() {
	s.closeOnce.Do(func() {
		if err := s.stream.Close(); err != nil {
			s.logger.WithError(err).Debug("stream close failed")
		}
	})
}

type sinkFunc func(msg protocol.Message) error

func (f sinkFunc) SendMessage(msg protocol.Message) error { return f(msg) }

// lifecycleMiddleware advances the state machine when the responses that
// drive the lifecycle leave this side: a successful initialize response
// opens the session, a successful shutdown response starts closing it.
type lifecycleMiddleware struct {
	middleware.NoOp
	state  *dispatch.StateMachine
	logger logging.Logger
}

func (l *lifecycleMiddleware) OnOutgoingResponse(req *protocol.Request, resp *protocol.Response) {
	if resp.Error != nil {
		return
	}
	var to dispatch.Phase
	switch req.Method {
	case protocol.MethodInitialize:
		to = dispatch.PhaseInitialized
	case protocol.MethodShutdown:
		to = dispatch.PhaseShuttingDown
	default:
		return
	}
	if err := l.state.Advance(to); err != nil {
		l.logger.WithError(err).Warn("lifecycle advance rejected",
			logging.String("method", req.Method))
	}
}
