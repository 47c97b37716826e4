// Package lsp provides a Go implementation of the base protocol underlying
// the Language Server Protocol family: Content-Length framing, JSON-RPC 2.0
// message handling, request correlation, cooperative cancellation and the
// initialize/shutdown/exit lifecycle. The root package re-exports the core
// entry points of the sub-packages.
package lsp

import (
	"github.com/ajitpratap0/lsp-sdk-go/pkg/client"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/server"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/session"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/transport"
)

// Version is the current version of the SDK.
const Version = "1.0.0"

// Core entry points re-exported from the sub-packages.
var (
	// NewSession creates a raw protocol session over a stream.
	NewSession = session.New

	// NewServer binds a LanguageServer implementation to a stream.
	NewServer = server.New

	// NewClient wraps a session in the typed server-to-client proxy.
	NewClient = client.NewClient

	// BindClient registers a LanguageClient capability set on an
	// editor-side session.
	BindClient = client.Bind

	// Stdio returns the process stdin/stdout as a transport stream.
	Stdio = transport.Stdio

	// Dial connects to a TCP peer and returns the connection as a stream.
	Dial = transport.Dial

	// Pipe returns two connected in-memory streams for tests and
	// in-process peers.
	Pipe = transport.Pipe
)

// Convenience aliases for the typed capability sets.
type (
	// LanguageServer is the server-side capability set.
	LanguageServer = server.LanguageServer

	// UnimplementedServer provides no-op defaults for LanguageServer.
	UnimplementedServer = server.UnimplementedServer

	// LanguageClient is the editor-side capability set.
	LanguageClient = client.LanguageClient

	// UnimplementedClient provides no-op defaults for LanguageClient.
	UnimplementedClient = client.UnimplementedClient
)
