// Package dispatch routes decoded messages to their destinations: responses
// resolve registry entries, inbound requests and notifications invoke
// handler capabilities on the executor, and unroutable traffic is answered
// with protocol errors or dropped per JSON-RPC convention.
//
// The dispatcher also enforces the lifecycle gate: before the initialize
// exchange completes, only the handshake and control messages are routed;
// after shutdown, new requests are rejected.
package dispatch

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"runtime/debug"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/errors"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/executor"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/logging"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/middleware"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/registry"
)

// Sink is the serialized outbound write path responses are handed to.
type Sink interface {
	SendMessage(msg protocol.Message) error
}

// GateConfig enumerates the control messages that bypass the initialized
// gate. The exact set varies across protocol revisions, so it is
// configuration rather than hard-coded logic.
type GateConfig struct {
	// ExemptRequests are routed while the session is uninitialized.
	ExemptRequests []string
	// ExemptNotifications are routed while the session is uninitialized
	// and remain honored while it is shutting down.
	ExemptNotifications []string
}

// DefaultGateConfig returns the LSP 3.15 control set.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		ExemptRequests: []string{protocol.MethodInitialize},
		ExemptNotifications: []string{
			protocol.MethodInitialized,
			protocol.MethodExit,
			protocol.MethodCancelRequest,
		},
	}
}

// Config carries the dispatcher collaborators.
type Config struct {
	Logger     logging.Logger
	Middleware middleware.Middleware
	Executor   executor.Executor
	Gate       GateConfig
}

// Dispatcher routes messages for one session.
type Dispatcher struct {
	logger   logging.Logger
	handlers *Handlers
	registry *registry.Registry
	sink     Sink
	state    *StateMachine
	exec     executor.Executor
	mw       middleware.Middleware

	exemptRequests      map[string]bool
	exemptNotifications map[string]bool
}

// New creates a dispatcher over the given capability set, registry, outbound
// sink and lifecycle state.
func New(handlers *Handlers, reg *registry.Registry, sink Sink, state *StateMachine, config Config) *Dispatcher {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	mw := config.Middleware
	if mw == nil {
		mw = middleware.NoOp{}
	}
	exec := config.Executor
	if exec == nil {
		exec = executor.Goroutines()
	}
	gate := config.Gate
	if len(gate.ExemptRequests) == 0 && len(gate.ExemptNotifications) == 0 {
		gate = DefaultGateConfig()
	}

	d := &Dispatcher{
		logger:              logger.WithFields(logging.String("component", "dispatch")),
		handlers:            handlers,
		registry:            reg,
		sink:                sink,
		state:               state,
		exec:                exec,
		mw:                  mw,
		exemptRequests:      make(map[string]bool, len(gate.ExemptRequests)),
		exemptNotifications: make(map[string]bool, len(gate.ExemptNotifications)),
	}
	for _, method := range gate.ExemptRequests {
		d.exemptRequests[method] = true
	}
	for _, method := range gate.ExemptNotifications {
		d.exemptNotifications[method] = true
	}
	return d
}

// Dispatch routes one decoded message. It never blocks on handler work:
// request and notification handlers run as independent units on the
// executor, concurrently with the next frame's decode.
func (d *Dispatcher) Dispatch(ctx context.Context, msg protocol.Message) {
	d.mw.OnIncomingMessage(msg)

	switch m := msg.(type) {
	case *protocol.Response:
		d.dispatchResponse(m)
	case *protocol.Notification:
		d.dispatchNotification(ctx, m)
	case *protocol.Request:
		d.dispatchRequest(ctx, m)
	}
}

func (d *Dispatcher) dispatchResponse(resp *protocol.Response) {
	if resp.ID == nil || !resp.ID.IsValid() {
		// A null id answers a request the peer could not parse; there is
		// nothing to correlate it with.
		d.logger.Warn("dropping response without id")
		return
	}

	outcome := registry.Outcome{Result: resp.Result}
	if resp.Error != nil {
		outcome = registry.Outcome{Err: resp.Error}
	}
	d.registry.Resolve(*resp.ID, outcome)
}

func (d *Dispatcher) dispatchNotification(ctx context.Context, notif *protocol.Notification) {
	if notif.Method == protocol.MethodCancelRequest {
		var params protocol.CancelParams
		if err := json.Unmarshal(notif.Params, &params); err != nil {
			d.logger.Warn("malformed cancel params", logging.ErrorField(err))
			return
		}
		d.registry.RequestCancel(params.ID)
		return
	}

	phase := d.state.Phase()
	if phase == PhaseUninitialized && !d.exemptNotifications[notif.Method] {
		d.logger.Debug("dropping notification before initialization",
			logging.String("method", notif.Method))
		return
	}
	if phase >= PhaseShuttingDown && !d.exemptNotifications[notif.Method] {
		d.logger.Debug("dropping notification during shutdown",
			logging.String("method", notif.Method))
		return
	}

	handler, ok := d.handlers.Notification(notif.Method)
	if !ok {
		// Notifications never produce error responses.
		d.logger.Debug("no handler for notification", logging.String("method", notif.Method))
		return
	}

	d.exec.Spawn(func() {
		defer d.recoverNotification(notif.Method)
		if err := handler(ctx, notif.Params); err != nil {
			d.logger.WithError(err).Warn("notification handler failed",
				logging.String("method", notif.Method))
		}
	})
}

func (d *Dispatcher) dispatchRequest(ctx context.Context, req *protocol.Request) {
	phase := d.state.Phase()
	if phase >= PhaseShuttingDown {
		d.respondError(req, errors.ToProtocolError(errors.ShuttingDown(req.Method)))
		return
	}
	if phase == PhaseUninitialized && !d.exemptRequests[req.Method] {
		d.respondError(req, errors.ToProtocolError(errors.ServerNotInitialized(req.Method)))
		return
	}

	handler, ok := d.handlers.Request(req.Method)
	if !ok {
		d.respondError(req, errors.ToProtocolError(errors.MethodNotFound(req.Method)))
		return
	}

	cancel := d.registry.RegisterIncoming(req.ID)

	d.exec.Spawn(func() {
		var resp *protocol.Response

		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("request handler panicked",
					logging.String("method", req.Method),
					logging.Any("panic", r),
					logging.String("stack", string(debug.Stack())))
				resp = protocol.NewErrorResponse(req.ID,
					protocol.NewError(protocol.CodeInternalError, "internal error handling "+req.Method))
			}
			d.registry.CompleteIncoming(req.ID)
			d.send(req, resp)
		}()

		result, err := handler(ctx, req.Params, cancel)
		switch {
		case err != nil:
			resp = protocol.NewErrorResponse(req.ID, d.responseError(err))
		default:
			ok, buildErr := protocol.NewResponse(req.ID, result)
			if buildErr != nil {
				resp = protocol.NewErrorResponse(req.ID,
					protocol.NewError(protocol.CodeInternalError, "failed to marshal result"))
				break
			}
			resp = ok
		}
	})
}

// responseError maps a handler error onto the wire error object. Context
// cancellation is treated as an honored request cancellation.
func (d *Dispatcher) responseError(err error) *protocol.Error {
	if stderrors.Is(err, context.Canceled) {
		return errors.ToProtocolError(errors.RequestCancelled())
	}
	return errors.ToProtocolError(err)
}

func (d *Dispatcher) respondError(req *protocol.Request, rpcErr *protocol.Error) {
	d.send(req, protocol.NewErrorResponse(req.ID, rpcErr))
}

func (d *Dispatcher) send(req *protocol.Request, resp *protocol.Response) {
	if resp == nil {
		return
	}
	d.mw.OnOutgoingResponse(req, resp)
	if err := d.sink.SendMessage(resp); err != nil {
		d.logger.WithError(err).Warn("failed to send response",
			logging.String("id", req.ID.String()))
	}
}

func (d *Dispatcher) recoverNotification(method string) {
	if r := recover(); r != nil {
		d.logger.Error("notification handler panicked",
			logging.String("method", method),
			logging.Any("panic", r),
			logging.String("stack", string(debug.Stack())))
	}
}
