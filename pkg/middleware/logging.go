package middleware

import (
	"github.com/ajitpratap0/lsp-sdk-go/pkg/logging"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
)

// Logging logs every message crossing the session boundary at debug level,
// and error responses at warn level.
type Logging struct {
	logger logging.Logger
}

// NewLogging creates a logging middleware.
func NewLogging(logger logging.Logger) *Logging {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Logging{logger: logger.WithFields(logging.String("component", "wire"))}
}

// OnIncomingMessage implements Middleware.
func (l *Logging) OnIncomingMessage(msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.Request:
		l.logger.Debug("recv request",
			logging.String("method", m.Method), logging.String("id", m.ID.String()))
	case *protocol.Notification:
		l.logger.Debug("recv notification", logging.String("method", m.Method))
	case *protocol.Response:
		id := "<null>"
		if m.ID != nil {
			id = m.ID.String()
		}
		if m.Error != nil {
			l.logger.Debug("recv error response",
				logging.String("id", id), logging.Int("code", int(m.Error.Code)))
		} else {
			l.logger.Debug("recv response", logging.String("id", id))
		}
	}
}

// OnOutgoingRequest implements Middleware.
func (l *Logging) OnOutgoingRequest(req *protocol.Request) {
	l.logger.Debug("send request",
		logging.String("method", req.Method), logging.String("id", req.ID.String()))
}

// OnOutgoingNotification implements Middleware.
func (l *Logging) OnOutgoingNotification(notif *protocol.Notification) {
	l.logger.Debug("send notification", logging.String("method", notif.Method))
}

// OnOutgoingResponse implements Middleware.
func (l *Logging) OnOutgoingResponse(req *protocol.Request, resp *protocol.Response) {
	if resp.Error != nil {
		l.logger.Warn("send error response",
			logging.String("method", req.Method),
			logging.String("id", req.ID.String()),
			logging.Int("code", int(resp.Error.Code)),
			logging.String("message", resp.Error.Message))
		return
	}
	l.logger.Debug("send response",
		logging.String("method", req.Method), logging.String("id", req.ID.String()))
}
