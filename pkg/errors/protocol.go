package errors

import (
	"errors"
	"fmt"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
)

// Sentinel causes for errors.Is checks. Structured errors produced by the
// constructors below wrap these, so callers can test with errors.Is without
// depending on the structured types.
var (
	// ErrConnectionClosed resolves abandoned outgoing requests at session
	// teardown. It never crosses the wire.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrDuplicateID reports reuse of an in-flight outgoing request id.
	ErrDuplicateID = errors.New("duplicate request id")
)

// FramingError reports a failure to decode the base-protocol framing. When
// Recoverable is true the body length was determined and decoding may resume
// at the next frame; otherwise the stream position is lost and the session
// must terminate.
type FramingError struct {
	Reason      string
	Recoverable bool
	Cause       error
}

func (e *FramingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("framing error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("framing error: %s", e.Reason)
}

func (e *FramingError) Unwrap() error { return e.Cause }

// NewFramingError creates a FramingError.
func NewFramingError(reason string, recoverable bool, cause error) *FramingError {
	return &FramingError{Reason: reason, Recoverable: recoverable, Cause: cause}
}

// IsRecoverableFraming reports whether err is a framing error that permits
// decoding to continue with the next frame.
func IsRecoverableFraming(err error) bool {
	var framingErr *FramingError
	return errors.As(err, &framingErr) && framingErr.Recoverable
}

// ConnectionClosed returns the structured error used to resolve every
// still-pending outgoing request when the session tears down.
func ConnectionClosed() EngineError {
	return Wrap(ErrConnectionClosed, int(protocol.CodeInternalError),
		"connection closed", CategoryTransport, SeverityWarning)
}

// DuplicateID reports that the caller reused an outgoing request id that is
// still awaiting its response. This is a programmer error surfaced
// synchronously from SendRequest.
func DuplicateID(id protocol.ID) EngineError {
	return Wrap(ErrDuplicateID, int(protocol.CodeInvalidRequest),
		fmt.Sprintf("request id %s is already pending", id),
		CategoryValidation, SeverityError)
}

// MethodNotFound reports an inbound request for an unregistered method.
func MethodNotFound(method string) EngineError {
	return New(int(protocol.CodeMethodNotFound),
		"method not found", CategoryProtocol, SeverityWarning).
		WithContext(&Context{Method: method})
}

// InvalidParams reports a parameter payload the handler could not decode.
func InvalidParams(method string, cause error) EngineError {
	return Wrap(cause, int(protocol.CodeInvalidParams),
		"could not deserialize parameter object", CategoryValidation, SeverityError).
		WithContext(&Context{Method: method})
}

// Internal reports a handler or engine failure converted to an error
// response at the dispatch boundary.
func Internal(message string) EngineError {
	return New(int(protocol.CodeInternalError), message, CategoryInternal, SeverityError)
}

// ServerNotInitialized reports a request received before the initialize
// exchange completed.
func ServerNotInitialized(method string) EngineError {
	return New(int(protocol.CodeServerNotInitialized),
		"server not initialized", CategoryLifecycle, SeverityWarning).
		WithContext(&Context{Method: method})
}

// RequestCancelled reports a request whose handler honored a cancellation.
func RequestCancelled() EngineError {
	return New(int(protocol.CodeRequestCancelled),
		"request cancelled", CategoryCancelled, SeverityInfo)
}

// ShuttingDown reports a request received after the shutdown request.
func ShuttingDown(method string) EngineError {
	return New(int(protocol.CodeInvalidRequest),
		"server shutting down", CategoryLifecycle, SeverityWarning).
		WithContext(&Context{Method: method})
}

// ToProtocolError converts any error to the wire error object. Structured
// errors keep their code; everything else maps to an internal error.
func ToProtocolError(err error) *protocol.Error {
	if err == nil {
		return nil
	}
	var rpcErr *protocol.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	if engineErr, ok := AsEngineError(err); ok {
		return protocol.NewError(protocol.ErrorCode(engineErr.Code()), engineErr.Message())
	}
	return protocol.NewError(protocol.CodeInternalError, err.Error())
}
