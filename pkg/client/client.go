// Package client covers both halves of the client side of the protocol: the
// Client proxy a server uses for server-to-client traffic, and the
// LanguageClient capability set an editor registers to receive it.
package client

import (
	"context"
	"encoding/json"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/session"
)

// Client is the typed proxy for messages travelling server to client. It is
// safe for concurrent use; request methods block until the client answers.
type Client struct {
	session *session.Session
}

// NewClient wraps a session in the typed proxy.
func NewClient(sess *session.Session) *Client {
	return &Client{session: sess}
}

// Progress reports generic progress on a previously created token.
func (c *Client) Progress(ctx context.Context, params protocol.ProgressParams) error {
	return c.session.SendNotification(ctx, protocol.MethodProgress, params)
}

// ShowMessage asks the client to display a message in the user interface.
func (c *Client) ShowMessage(ctx context.Context, params protocol.ShowMessageParams) error {
	return c.session.SendNotification(ctx, protocol.MethodShowMessage, params)
}

// ShowMessageRequest displays a message with actions and returns the one the
// user selected, or nil when dismissed.
func (c *Client) ShowMessageRequest(ctx context.Context, params protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error) {
	var item *protocol.MessageActionItem
	if err := c.session.Call(ctx, protocol.MethodShowMessageRequest, params, &item); err != nil {
		return nil, err
	}
	return item, nil
}

// LogMessage asks the client to log a message.
func (c *Client) LogMessage(ctx context.Context, params protocol.LogMessageParams) error {
	return c.session.SendNotification(ctx, protocol.MethodLogMessage, params)
}

// TelemetryEvent forwards an arbitrary telemetry payload to the client.
func (c *Client) TelemetryEvent(ctx context.Context, payload interface{}) error {
	return c.session.SendNotification(ctx, protocol.MethodTelemetryEvent, payload)
}

// RegisterCapability registers new capabilities on the client dynamically.
func (c *Client) RegisterCapability(ctx context.Context, params protocol.RegistrationParams) error {
	return c.session.Call(ctx, protocol.MethodRegisterCapability, params, nil)
}

// UnregisterCapability withdraws previously registered capabilities.
func (c *Client) UnregisterCapability(ctx context.Context, params protocol.UnregistrationParams) error {
	return c.session.Call(ctx, protocol.MethodUnregisterCapability, params, nil)
}

// WorkspaceFolders fetches the client's open workspace roots.
func (c *Client) WorkspaceFolders(ctx context.Context) ([]protocol.WorkspaceFolder, error) {
	var folders []protocol.WorkspaceFolder
	if err := c.session.Call(ctx, protocol.MethodWorkspaceFolders, nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// Configuration fetches configuration values from the client. The result
// has one entry per requested item.
func (c *Client) Configuration(ctx context.Context, params protocol.ConfigurationParams) ([]json.RawMessage, error) {
	var values []json.RawMessage
	if err := c.session.Call(ctx, protocol.MethodConfiguration, params, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// ApplyEdit asks the client to apply a workspace edit.
func (c *Client) ApplyEdit(ctx context.Context, params protocol.ApplyWorkspaceEditParams) (*protocol.ApplyWorkspaceEditResult, error) {
	var result protocol.ApplyWorkspaceEditResult
	if err := c.session.Call(ctx, protocol.MethodApplyEdit, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PublishDiagnostics pushes validation results for one document.
func (c *Client) PublishDiagnostics(ctx context.Context, params protocol.PublishDiagnosticsParams) error {
	return c.session.SendNotification(ctx, protocol.MethodPublishDiagnostics, params)
}
