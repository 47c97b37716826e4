package middleware

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
)

const tracerName = "github.com/ajitpratap0/lsp-sdk-go/pkg/middleware"

// Tracing opens an OpenTelemetry span for every inbound request and closes
// it when the matching response leaves the session.
type Tracing struct {
	NoOp
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[protocol.ID]trace.Span
}

// NewTracing creates a tracing middleware. A nil provider uses the global
// tracer provider.
func NewTracing(provider trace.TracerProvider) *Tracing {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracing{
		tracer: provider.Tracer(tracerName),
		spans:  make(map[protocol.ID]trace.Span),
	}
}

// OnIncomingMessage implements Middleware.
func (t *Tracing) OnIncomingMessage(msg protocol.Message) {
	req, ok := msg.(*protocol.Request)
	if !ok {
		return
	}

	_, span := t.tracer.Start(context.Background(), "lsp.request "+req.Method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", req.Method),
			attribute.String("rpc.jsonrpc.request_id", req.ID.String()),
		))

	t.mu.Lock()
	t.spans[req.ID] = span
	t.mu.Unlock()
}

// OnOutgoingResponse implements Middleware.
func (t *Tracing) OnOutgoingResponse(req *protocol.Request, resp *protocol.Response) {
	t.mu.Lock()
	span, ok := t.spans[req.ID]
	if ok {
		delete(t.spans, req.ID)
	}
	t.mu.Unlock()
	if !ok {
		return
	}

	if resp.Error != nil {
		span.SetAttributes(attribute.Int("rpc.jsonrpc.error_code", int(resp.Error.Code)))
		span.SetStatus(codes.Error, resp.Error.Message)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
