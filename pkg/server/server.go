// Package server binds a typed LanguageServer implementation to a session.
//
// The LanguageServer interface covers the lifecycle methods plus the common
// document surface; embed UnimplementedServer to get no-op defaults and
// override only what the server supports. Methods outside the interface are
// registered directly on the session with HandleRequest/HandleNotification.
package server

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/client"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/errors"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/registry"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/session"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/transport"
)

// LanguageServer is the server-side capability set. Every method receives
// the decoded parameter payload; request methods return the result that is
// marshaled into the response.
type LanguageServer interface {
	Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error)
	Initialized(ctx context.Context, params *protocol.InitializedParams) error
	Shutdown(ctx context.Context) error
	Exit(ctx context.Context) error

	DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error
	DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error

	Hover(ctx context.Context, params *protocol.TextDocumentPositionParams) (*protocol.Hover, error)
	Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error)
	Definition(ctx context.Context, params *protocol.TextDocumentPositionParams) ([]protocol.Location, error)
	References(ctx context.Context, params *protocol.ReferenceParams) ([]protocol.Location, error)
	Formatting(ctx context.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error)
	Rename(ctx context.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error)
	FoldingRange(ctx context.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error)
	WorkspaceSymbol(ctx context.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error)
	ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (json.RawMessage, error)
}

// Server runs one LanguageServer over one stream.
type Server struct {
	session *session.Session
	client  *client.Client
	impl    LanguageServer

	shutdownSeen atomic.Bool
}

// New creates a server session over the stream and registers the capability
// set of impl on it.
func New(stream transport.Stream, impl LanguageServer, config session.Config) *Server {
	sess := session.New(stream, config)
	s := &Server{
		session: sess,
		client:  client.NewClient(sess),
		impl:    impl,
	}
	s.register()
	return s
}

// Session exposes the underlying session for methods outside the typed
// capability set.
func (s *Server) Session() *session.Session { return s.session }

// Client returns the typed proxy for server-to-client traffic.
func (s *Server) Client() *client.Client { return s.client }

// Run serves the connection until the client exits the session, the stream
// ends or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.session.Listen(ctx)
}

// ExitCode returns the process exit code the protocol prescribes: 0 when
// exit followed a shutdown request, 1 otherwise.
func (s *Server) ExitCode() int {
	if s.shutdownSeen.Load() {
		return 0
	}
	return 1
}

func (s *Server) register() {
	request(s.session, protocol.MethodInitialize, s.impl.Initialize)
	s.session.HandleRequest(protocol.MethodShutdown, func(ctx context.Context, _ json.RawMessage, _ *registry.CancelHandle) (interface{}, error) {
		s.shutdownSeen.Store(true)
		return nil, s.impl.Shutdown(ctx)
	})
	notification(s.session, protocol.MethodInitialized, s.impl.Initialized)
	s.session.HandleNotification(protocol.MethodExit, func(ctx context.Context, _ json.RawMessage) error {
		return s.impl.Exit(ctx)
	})

	notification(s.session, protocol.MethodDidOpen, s.impl.DidOpen)
	notification(s.session, protocol.MethodDidChange, s.impl.DidChange)
	notification(s.session, protocol.MethodDidSave, s.impl.DidSave)
	notification(s.session, protocol.MethodDidClose, s.impl.DidClose)

	request(s.session, protocol.MethodHover, s.impl.Hover)
	request(s.session, protocol.MethodCompletion, s.impl.Completion)
	request(s.session, protocol.MethodDefinition, s.impl.Definition)
	request(s.session, protocol.MethodReferences, s.impl.References)
	request(s.session, protocol.MethodFormatting, s.impl.Formatting)
	request(s.session, protocol.MethodRename, s.impl.Rename)
	request(s.session, protocol.MethodFoldingRange, s.impl.FoldingRange)
	request(s.session, protocol.MethodWorkspaceSymbol, s.impl.WorkspaceSymbol)
	request(s.session, protocol.MethodExecuteCommand, s.impl.ExecuteCommand)
}

// request adapts a typed method to the session's raw request handler shape.
// Cooperative cancellation flows through ctx; handlers needing the raw
// cancel handle register on the session directly.
func request[P, R any](sess *session.Session, method string, fn func(context.Context, *P) (R, error)) {
	sess.HandleRequest(method, func(ctx context.Context, raw json.RawMessage, _ *registry.CancelHandle) (interface{}, error) {
		params, err := decode[P](method, raw)
		if err != nil {
			return nil, err
		}
		return fn(ctx, params)
	})
}

func notification[P any](sess *session.Session, method string, fn func(context.Context, *P) error) {
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
