// Package middleware provides hooks invoked around message processing.
//
// A Middleware observes (and may mutate) every message crossing the session
// boundary: incoming messages before they are dispatched, and outgoing
// requests, notifications and responses before they are framed. Middlewares
// compose with Chain and run in registration order.
package middleware

import (
	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
)

// Middleware observes messages at the session boundary.
type Middleware interface {
	// OnIncomingMessage runs before an incoming message is dispatched.
	OnIncomingMessage(msg protocol.Message)

	// OnOutgoingRequest runs before a locally originated request is framed.
	OnOutgoingRequest(req *protocol.Request)

	// OnOutgoingNotification runs before a locally originated notification
	// is framed.
	OnOutgoingNotification(notif *protocol.Notification)

	// OnOutgoingResponse runs before the response to an inbound request is
	// framed. The request is the one being answered.
	OnOutgoingResponse(req *protocol.Request, resp *protocol.Response)
}

// Chain composes middlewares; hooks run in slice order.
type Chain []Middleware

// OnIncomingMessage implements Middleware.
func (c Chain) OnIncomingMessage(msg protocol.Message) {
	for _, m := range c {
		m.OnIncomingMessage(msg)
	}
}

// OnOutgoingRequest implements Middleware.
func (c Chain) OnOutgoingRequest(req *protocol.Request) {
	for _, m := range c {
		m.OnOutgoingRequest(req)
	}
}

// OnOutgoingNotification implements Middleware.
func (c Chain) OnOutgoingNotification(notif *protocol.Notification) {
	for _, m := range c {
		m.OnOutgoingNotification(notif)
	}
}

// OnOutgoingResponse implements Middleware.
func (c Chain) OnOutgoingResponse(req *protocol.Request, resp *protocol.Response) {
	for _, m := range c {
		m.OnOutgoingResponse(req, resp)
	}
}

// NoOp is an empty middleware, useful for embedding when only some hooks are
// needed.
type NoOp struct{}

func (NoOp) OnIncomingMessage(protocol.Message)                       {}
func (NoOp) OnOutgoingRequest(*protocol.Request)                      {}
func (NoOp) OnOutgoingNotification(*protocol.Notification)            {}
func (NoOp) OnOutgoingResponse(*protocol.Request, *protocol.Response) {}
