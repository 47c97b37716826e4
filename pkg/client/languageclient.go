package client

import (
	"context"
	"encoding/json"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/errors"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/registry"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/session"
)

// LanguageClient is the editor-side capability set for traffic originating
// at the server.
type LanguageClient interface {
	Progress(ctx context.Context, params *protocol.ProgressParams) error
	ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) error
	ShowMessageRequest(ctx context.Context, params *protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error)
	LogMessage(ctx context.Context, params *protocol.LogMessageParams) error
	TelemetryEvent(ctx context.Context, payload json.RawMessage) error
	RegisterCapability(ctx context.Context, params *protocol.RegistrationParams) error
	UnregisterCapability(ctx context.Context, params *protocol.UnregistrationParams) error
	WorkspaceFolders(ctx context.Context) ([]protocol.WorkspaceFolder, error)
	Configuration(ctx context.Context, params *protocol.ConfigurationParams) ([]json.RawMessage, error)
	ApplyEdit(ctx context.Context, params *protocol.ApplyWorkspaceEditParams) (*protocol.ApplyWorkspaceEditResult, error)
	PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error
}

// Bind registers the capability set of impl on an editor-side session.
func Bind(sess *session.Session, impl LanguageClient) {
	bindNotification(sess, protocol.MethodProgress, impl.Progress)
	bindNotification(sess, protocol.MethodShowMessage, impl.ShowMessage)
	bindNotification(sess, protocol.MethodLogMessage, impl.LogMessage)
	bindNotification(sess, protocol.MethodPublishDiagnostics, impl.PublishDiagnostics)

	sess.HandleNotification(protocol.MethodTelemetryEvent, func(ctx context.Context, raw json.RawMessage) error {
		return impl.TelemetryEvent(ctx, raw)
	})

	bindRequest(sess, protocol.MethodShowMessageRequest, impl.ShowMessageRequest)
	bindRequest(sess, protocol.MethodConfiguration, impl.Configuration)
	bindRequest(sess, protocol.MethodApplyEdit, impl.ApplyEdit)

	sess.HandleRequest(protocol.MethodRegisterCapability, func(ctx context.Context, raw json.RawMessage, _ *registry.CancelHandle) (interface{}, error) {
		params, err := decode[protocol.RegistrationParams](protocol.MethodRegisterCapability, raw)
		if err != nil {
			return nil, err
		}
		return nil, impl.RegisterCapability(ctx, params)
	})
	sess.HandleRequest(protocol.MethodUnregisterCapability, func(ctx context.Context, raw json.RawMessage, _ *registry.CancelHandle) (interface{}, error) {
		params, err := decode[protocol.UnregistrationParams](protocol.MethodUnregisterCapability, raw)
		if err != nil {
			return nil, err
		}
		return nil, impl.UnregisterCapability(ctx, params)
	})
	sess.HandleRequest(protocol.MethodWorkspaceFolders, func(ctx context.Context, _ json.RawMessage, _ *registry.CancelHandle) (interface{}, error) {
		return impl.WorkspaceFolders(ctx)
	})
}

// UnimplementedClient provides no-op defaults for every LanguageClient
// method.
type UnimplementedClient struct{}

var _ LanguageClient = UnimplementedClient{}

func (UnimplementedClient) Progress(context.Context, *protocol.ProgressParams) error { return nil }

func (UnimplementedClient) ShowMessage(context.Context, *protocol.ShowMessageParams) error {
	return nil
}

func (UnimplementedClient) ShowMessageRequest(context.Context, *protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error) {
	return nil, nil
}

func (UnimplementedClient) LogMessage(context.Context, *protocol.LogMessageParams) error {
	return nil
}

func (UnimplementedClient) TelemetryEvent(context.Context, json.RawMessage) error { return nil }

func (UnimplementedClient) RegisterCapability(context.Context, *protocol.RegistrationParams) error {
	return nil
}

func (UnimplementedClient) UnregisterCapability(context.Context, *protocol.UnregistrationParams) error {
	return nil
}

func (UnimplementedClient) WorkspaceFolders(context.Context) ([]protocol.WorkspaceFolder, error) {
	return nil, nil
}

func (UnimplementedClient) Configuration(context.Context, *protocol.ConfigurationParams) ([]json.RawMessage, error) {
	return nil, nil
}

func (UnimplementedClient) ApplyEdit(context.Context, *protocol.ApplyWorkspaceEditParams) (*protocol.ApplyWorkspaceEditResult, error) {
	return &protocol.ApplyWorkspaceEditResult{Applied: false, FailureReason: "applyEdit is not supported"}, nil
}

func (UnimplementedClient) PublishDiagnostics(context.Context, *protocol.PublishDiagnosticsParams) error {
	return nil
}

func bindRequest[P, R any](sess *session.Session, method string, fn func(context.Context, *P) (R, error)) {
	sess.HandleRequest(method, func(ctx context.Context, raw json.RawMessage, _ *registry.CancelHandle) (interface{}, error) {
		params, err := decode[P](method, raw)
		if err != nil {
			return nil, err
		}
		return fn(ctx, params)
	})
}

func bindNotification[P any](sess *session.Session, method string, fn func(context.Context, *P) error) {
	sess.HandleNotification(method, func(ctx context.Context, raw json.RawMessage) error {
		params, err := decode[P](method, raw)
		if err != nil {
			return err
		}
		return fn(ctx, params)
	})
}

func decode[P any](method string, raw json.RawMessage) (*P, error) {
	var params P
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, errors.InvalidParams(method, err)
		}
	}
	return &params, nil
}
