package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC protocol version carried by every message.
const Version = "2.0"

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     ErrorCode = -32700
	CodeInvalidRequest ErrorCode = -32600
	CodeMethodNotFound ErrorCode = -32601
	CodeInvalidParams  ErrorCode = -32602
	CodeInternalError  ErrorCode = -32603
)

// LSP specific error codes.
const (
	CodeServerNotInitialized ErrorCode = -32002
	CodeUnknownError         ErrorCode = -32001
	CodeRequestCancelled     ErrorCode = -32800
	CodeContentModified      ErrorCode = -32801
)

// Error is the JSON-RPC error object placed in the "error" field of a
// Response.
type Error struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("jsonrpc: code %d, message: %s", e.Code, e.Message)
}

// NewError returns an Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Message is the tagged variant over the three wire message shapes. The
// concrete types are *Request, *Notification and *Response.
type Message interface {
	isMessage()
}

// Request is a message that obligates exactly one matching Response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (*Request) isMessage() {}

// NewRequest creates a Request, marshaling params to an opaque payload.
func NewRequest(id ID, method string, params interface{}) (*Request, error) {
	paramsJSON, err := marshalPayload(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	return &Request{JSONRPC: Version, ID: id, Method: method, Params: paramsJSON}, nil
}

// Notification is a one-way message. It carries no ID and is never answered.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (*Notification) isMessage() {}

// NewNotification creates a Notification, marshaling params to an opaque
// payload.
func NewNotification(method string, params interface{}) (*Notification, error) {
	paramsJSON, err := marshalPayload(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	return &Notification{JSONRPC: Version, Method: method, Params: paramsJSON}, nil
}

// Response answers exactly one Request. Exactly one of Result and Error is
// set. The ID is a pointer because a peer replying to an unparseable request
// is permitted to send "id": null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func (*Response) isMessage() {}

// NewResponse creates a success Response. A nil result is encoded as a JSON
// null result, which the protocol requires for void operations such as
// shutdown.
func NewResponse(id ID, result interface{}) (*Response, error) {
	resultJSON, err := marshalPayload(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	if resultJSON == nil {
		resultJSON = json.RawMessage("null")
	}
	return &Response{JSONRPC: Version, ID: &id, Result: resultJSON}, nil
}

// NewErrorResponse creates an error Response.
func NewErrorResponse(id ID, rpcErr *Error) *Response {
	return &Response{JSONRPC: Version, ID: &id, Error: rpcErr}
}

func marshalPayload(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

// ParseMessage classifies and decodes a single JSON object into one of the
// three message shapes. Classification is structural: a Response has an "id"
// and one of "result"/"error"; a Request has an "id" and a "method"; a
// Notification has a "method" and no "id".
func ParseMessage(data []byte) (Message, error) {
	var probe struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Method  *string         `json:"method"`
		Result  json.RawMessage `json:"result"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	hasID := probe.ID != nil
	hasOutcome := probe.Result != nil || probe.Error != nil

	switch {
	case hasID && hasOutcome:
		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("invalid response: %w", err)
		}
		return &resp, nil
	case hasID && probe.Method != nil:
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
		return &req, nil
	case !hasID && probe.Method != nil:
		var notif Notification
		if err := json.Unmarshal(data, &notif); err != nil {
			return nil, fmt.Errorf("invalid notification: %w", err)
		}
		return &notif, nil
	default:
		return nil, fmt.Errorf("message matches no JSON-RPC shape")
	}
}

// IsBatch reports whether the body is a JSON array of messages.
func IsBatch(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// ParseBatch decodes a JSON array body into its constituent messages. Each
// element is classified independently; the first malformed element aborts the
// batch.
func ParseBatch(data []byte) ([]Message, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("invalid batch body: %w", err)
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("batch body is empty")
	}
	messages := make([]Message, 0, len(elements))
	for i, element := range elements {
		msg, err := ParseMessage(element)
		if err != nil {
			return nil, fmt.Errorf("batch element %d: %w", i, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// EncodeMessage serializes a message to its wire body.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
