package dispatch

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/registry"
)

// RequestHandler handles one inbound request. The params payload is opaque;
// decoding it is the handler's concern. The cancel handle is the cooperative
// cancellation flag for this invocation; a handler that observes it set and
// chooses to stop returns an error carrying the RequestCancelled code.
type RequestHandler func(ctx context.Context, params json.RawMessage, cancel *registry.CancelHandle) (interface{}, error)

// NotificationHandler handles one inbound notification. Errors are logged,
// never answered: notifications produce no responses.
type NotificationHandler func(ctx context.Context, params json.RawMessage) error

// Handlers is the capability set of one side of the session: the mapping
// from method name to handler. It is populated at session construction and
// read by the dispatcher afterwards.
type Handlers struct {
	mu            sync.RWMutex
	requests      map[string]RequestHandler
	notifications map[string]NotificationHandler
}

// NewHandlers creates an empty capability set.
func NewHandlers() *Handlers {
	return &Handlers{
		requests:      make(map[string]RequestHandler),
		notifications: make(map[string]NotificationHandler),
	}
}

// RegisterRequest binds a request handler to a method name, replacing any
// previous binding.
func (h *Handlers) RegisterRequest(method string, handler RequestHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests[method] = handler
}

// RegisterNotification binds a notification handler to a method name,
// replacing any previous binding.
func (h *Handlers) RegisterNotification(method string, handler NotificationHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifications[method] = handler
}

// Request looks up the request handler for a method.
func (h *Handlers) Request(method string) (RequestHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handler, ok := h.requests[method]
	return handler, ok
}

// Notification looks up the notification handler for a method.
func (h *Handlers) Notification(method string) (NotificationHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handler, ok := h.notifications[method]
	return handler, ok
}
