// Package registry tracks in-flight requests for one session, in both
// directions: requests this side has sent and is awaiting a response for,
// and requests the peer has sent that are still being handled locally.
//
// The registry is the only engine component mutated from multiple concurrent
// contexts; every operation is atomic under a single mutex. Outgoing and
// incoming identifiers live in independent id spaces, so the same id may be
// in flight in both directions at once.
package registry

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/errors"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/logging"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
)

// Outcome is the terminal result of an outgoing request. Err is either the
// peer's wire error (*protocol.Error) or a local error such as
// errors.ErrConnectionClosed; exactly one of Result and Err is meaningful.
type Outcome struct {
	Result json.RawMessage
	Err    error
}

// Pending is the single-assignment completion handle for one outgoing
// request. The registry fills it exactly once, by exactly one path: the
// matching response or session teardown.
type Pending struct {
	id     protocol.ID
	method string
	done   chan Outcome
}

// ID returns the request identifier.
func (p *Pending) ID() protocol.ID { return p.id }

// Method returns the request method name.
func (p *Pending) Method() string { return p.method }

// Done returns the channel the outcome is delivered on. It receives exactly
// one value.
func (p *Pending) Done() <-chan Outcome { return p.done }

// CancelHandle is the cooperative cancellation flag handed to the handler of
// one inbound request. Setting it is idempotent; the handler polls it at
// natural suspension points and is never preempted.
type CancelHandle struct {
	id   protocol.ID
	flag atomic.Bool
}

// ID returns the inbound request identifier.
func (h *CancelHandle) ID() protocol.ID { return h.id }

// Cancelled reports whether cancellation has been requested.
func (h *CancelHandle) Cancelled() bool { return h.flag.Load() }

// Registry is the per-session in-flight request table. The zero value is not
// usable; construct with New.
type Registry struct {
	mu       sync.Mutex
	logger   logging.Logger
	outgoing map[protocol.ID]*Pending
	incoming map[protocol.ID]*CancelHandle
	closed   bool
}

// New creates an empty registry. A nil logger disables logging.
func New(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		logger:   logger.WithFields(logging.String("component", "registry")),
		outgoing: make(map[protocol.ID]*Pending),
		incoming: make(map[protocol.ID]*CancelHandle),
	}
}

// RegisterOutgoing records a request this side is about to send and returns
// its completion handle. It fails with errors.ErrDuplicateID if the id is
// already awaiting a response, and with errors.ErrConnectionClosed after the
// registry has been drained.
func (r *Registry) RegisterOutgoing(id protocol.ID, method string) (*Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.ConnectionClosed()
	}
	if _, exists := r.outgoing[id]; exists {
		return nil, errors.DuplicateID(id)
	}

	pending := &Pending{id: id, method: method, done: make(chan Outcome, 1)}
	r.outgoing[id] = pending
	return pending, nil
}

// Resolve fulfills the completion handle matching id. An unknown id is a
// protocol violation by the peer (duplicate or unsolicited response); it is
// logged and otherwise ignored.
func (r *Registry) Resolve(id protocol.ID, outcome Outcome) {
	r.mu.Lock()
	pending, ok := r.outgoing[id]
	if ok {
		delete(r.outgoing, id)
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Warn("dropping unsolicited response", logging.String("id", id.String()))
		return
	}
	pending.done <- outcome
}

// RegisterIncoming records an inbound request being scheduled and returns
// the cancellation handle its handler polls.
func (r *Registry) RegisterIncoming(id protocol.ID) *CancelHandle {
	handle := &CancelHandle{id: id}

	r.mu.Lock()
	if _, exists := r.incoming[id]; exists {
		// The peer reused an in-flight id. Track the newest handler; the
		// previous entry can no longer be cancelled individually.
		r.logger.Warn("peer reused in-flight request id", logging.String("id", id.String()))
	}
	r.incoming[id] = handle
	r.mu.Unlock()

	return handle
}

// CompleteIncoming removes the in-flight entry once the handler has produced
// its response, whether or not cancellation was ever requested.
func (r *Registry) CompleteIncoming(id protocol.ID) {
	r.mu.Lock()
	delete(r.incoming, id)
	r.mu.Unlock()
}

// RequestCancel sets the cancellation flag for the matching inbound request.
// Cancellation is inherently racy against completion: an unknown or already
// completed id is a no-op, never an error.
func (r *Registry) RequestCancel(id protocol.ID) {
	r.mu.Lock()
	handle, ok := r.incoming[id]
	r.mu.Unlock()

	if ok {
		handle.flag.Store(true)
		r.logger.Debug("cancellation requested", logging.String("id", id.String()))
	}
}

// IsCancelled reports whether cancellation has been requested for an inbound
// request that is still in flight.
func (r *Registry) IsCancelled(id protocol.ID) bool {
	r.mu.Lock()
	handle, ok := r.incoming[id]
	r.mu.Unlock()
	return ok && handle.Cancelled()
}

// Drain resolves every still-pending outgoing request with a
// connection-closed error and rejects all future registrations. It returns
// the drained handles. Calling Drain more than once is safe.
func (r *Registry) Drain() []*Pending {
	r.mu.Lock()
	r.closed = true
	drained := make([]*Pending, 0, len(r.outgoing))
	for id, pending := range r.outgoing {
		drained = append(drained, pending)
		delete(r.outgoing, id)
	}
	r.mu.Unlock()

	for _, pending := range drained {
		pending.done <- Outcome{Err: errors.ConnectionClosed()}
	}
	if len(drained) > 0 {
		r.logger.Info("drained pending requests", logging.Int("count", len(drained)))
	}
	return drained
}

// OutgoingCount returns the number of requests awaiting responses.
func (r *Registry) OutgoingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outgoing)
}

// IncomingCount returns the number of inbound requests being handled.
func (r *Registry) IncomingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.incoming)
}
