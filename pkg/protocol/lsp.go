package protocol

import "encoding/json"

// Lifecycle and control method names. These are fixed by the protocol and
// drive the session state machine.
const (
	MethodInitialize    = "initialize"
	MethodInitialized   = "initialized"
	MethodShutdown      = "shutdown"
	MethodExit          = "exit"
	MethodCancelRequest = "$/cancelRequest"
	MethodProgress      = "$/progress"
)

// Client-bound method names used by the client capability set.
const (
	MethodShowMessage          = "window/showMessage"
	MethodShowMessageRequest   = "window/showMessageRequest"
	MethodLogMessage           = "window/logMessage"
	MethodTelemetryEvent       = "telemetry/event"
	MethodRegisterCapability   = "client/registerCapability"
	MethodUnregisterCapability = "client/unregisterCapability"
	MethodWorkspaceFolders     = "workspace/workspaceFolders"
	MethodConfiguration        = "workspace/configuration"
	MethodApplyEdit            = "workspace/applyEdit"
	MethodPublishDiagnostics   = "textDocument/publishDiagnostics"
)

// Server-bound method names covered by the server capability set.
const (
	MethodDidOpen         = "textDocument/didOpen"
	MethodDidChange       = "textDocument/didChange"
	MethodDidSave         = "textDocument/didSave"
	MethodDidClose        = "textDocument/didClose"
	MethodHover           = "textDocument/hover"
	MethodCompletion      = "textDocument/completion"
	MethodDefinition      = "textDocument/definition"
	MethodReferences      = "textDocument/references"
	MethodFormatting      = "textDocument/formatting"
	MethodRename          = "textDocument/rename"
	MethodFoldingRange    = "textDocument/foldingRange"
	MethodWorkspaceSymbol = "workspace/symbol"
	MethodExecuteCommand  = "workspace/executeCommand"
)

// CancelParams is the payload of a "$/cancelRequest" notification.
type CancelParams struct {
	ID ID `json:"id"`
}

// InitializeParams is the payload of the "initialize" request. The engine
// passes the capability and initialization payloads through without
// interpreting them.
type InitializeParams struct {
	ProcessID             *int64          `json:"processId"`
	RootURI               *string         `json:"rootUri"`
	InitializationOptions json.RawMessage `json:"initializationOptions,omitempty"`
	Capabilities          json.RawMessage `json:"capabilities"`
	Trace                 string          `json:"trace,omitempty"`
}

// InitializeResult is the payload of the "initialize" response.
type InitializeResult struct {
	Capabilities json.RawMessage `json:"capabilities"`
	ServerInfo   *ServerInfo     `json:"serverInfo,omitempty"`
}

// ServerInfo identifies the server implementation to the client.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializedParams is the (empty) payload of the "initialized" notification.
type InitializedParams struct{}

// ProgressParams is the payload of a "$/progress" notification. The token
// identifies the progress stream; the value payload is schema-defined by the
// operation that created it.
type ProgressParams struct {
	Token json.RawMessage `json:"token"`
	Value json.RawMessage `json:"value"`
}

// ShowMessageParams is the payload of a "window/showMessage" notification.
type ShowMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// LogMessageParams is the payload of a "window/logMessage" notification.
type LogMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// MessageType is the severity of a window/showMessage or window/logMessage
// payload.
type MessageType int

const (
	MessageTypeError   MessageType = 1
	MessageTypeWarning MessageType = 2
	MessageTypeInfo    MessageType = 3
	MessageTypeLog     MessageType = 4
)
