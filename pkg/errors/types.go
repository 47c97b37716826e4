// Package errors provides structured error handling for the engine.
// It defines error types that map to JSON-RPC error codes and carry
// context for debugging and programmatic handling.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Category classifies an error for handling decisions.
type Category string

const (
	CategoryProtocol   Category = "protocol"
	CategoryTransport  Category = "transport"
	CategoryInternal   Category = "internal"
	CategoryCancelled  Category = "cancelled"
	CategoryValidation Category = "validation"
	CategoryLifecycle  Category = "lifecycle"
)

// Severity indicates how critical an error is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Context records where an error occurred.
type Context struct {
	RequestID string    `json:"request_id,omitempty"`
	Method    string    `json:"method,omitempty"`
	Component string    `json:"component,omitempty"`
	Operation string    `json:"operation,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EngineError is the interface implemented by all structured engine errors.
type EngineError interface {
	error

	// Code returns the JSON-RPC error code.
	Code() int

	// Message returns the human-readable error message.
	Message() string

	// Category returns the error category.
	Category() Category

	// Severity returns the error severity.
	Severity() Severity

	// Context returns the error context, which may be nil.
	Context() *Context

	// WithContext returns a copy of the error with the provided context.
	WithContext(ctx *Context) EngineError

	// WithDetail returns a copy of the error with additional detail appended.
	WithDetail(detail string) EngineError

	// Unwrap returns the underlying cause for errors.Is / errors.As.
	Unwrap() error
}

type baseError struct {
	code     int
	message  string
	detail   string
	category Category
	severity Severity
	context  *Context
	cause    error
}

func (e *baseError) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("%s: %s", e.message, e.detail)
	}
	return e.message
}

func (e *baseError) Code() int          { return e.code }
func (e *baseError) Message() string    { return e.message }
func (e *baseError) Category() Category { return e.category }
func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) Context() *Context  { return e.context }
func (e *baseError) Unwrap() error      { return e.cause }

func (e *baseError) WithContext(ctx *Context) EngineError {
	clone := *e
	clone.context = ctx
	return &clone
}

func (e *baseError) WithDetail(detail string) EngineError {
	clone := *e
	if clone.detail != "" {
		clone.detail = fmt.Sprintf("%s; %s", clone.detail, detail)
	} else {
		clone.detail = detail
	}
	return &clone
}

// New creates a structured error with the given code, message, category and
// severity.
func New(code int, message string, category Category, severity Severity) EngineError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		context:  &Context{Timestamp: time.Now()},
	}
}

// Wrap creates a structured error wrapping an underlying cause.
func Wrap(cause error, code int, message string, category Category, severity Severity) EngineError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		cause:    cause,
		context:  &Context{Timestamp: time.Now()},
	}
}

// AsEngineError extracts an EngineError from an error chain.
func AsEngineError(err error) (EngineError, bool) {
	var engineErr EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given JSON-RPC error code.
func IsCode(err error, code int) bool {
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr.Code() == code
	}
	return false
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, category Category) bool {
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr.Category() == category
	}
	return false
}
