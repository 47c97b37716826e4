package server

import (
	"context"
	"encoding/json"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
)

// UnimplementedServer provides no-op defaults for every LanguageServer
// method. Embed it and override the methods the server actually supports.
type UnimplementedServer struct{}

var _ LanguageServer = UnimplementedServer{}

func (UnimplementedServer) Initialize(context.Context, *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	return &protocol.InitializeResult{Capabilities: json.RawMessage(`{}`)}, nil
}

func (UnimplementedServer) Initialized(context.Context, *protocol.InitializedParams) error {
	return nil
}

func (UnimplementedServer) Shutdown(context.Context) error { return nil }

func (UnimplementedServer) Exit(context.Context) error { return nil }

func (UnimplementedServer) DidOpen(context.Context, *protocol.DidOpenTextDocumentParams) error {
	return nil
}

func (UnimplementedServer) DidChange(context.Context, *protocol.DidChangeTextDocumentParams) error {
	return nil
}

func (UnimplementedServer) DidSave(context.Context, *protocol.DidSaveTextDocumentParams) error {
	return nil
}

func (UnimplementedServer) DidClose(context.Context, *protocol.DidCloseTextDocumentParams) error {
	return nil
}

func (UnimplementedServer) Hover(context.Context, *protocol.TextDocumentPositionParams) (*protocol.Hover, error) {
	return nil, nil
}

func (UnimplementedServer) Completion(context.Context, *protocol.CompletionParams) (*protocol.CompletionList, error) {
	return &protocol.CompletionList{Items: []protocol.CompletionItem{}}, nil
}

func (UnimplementedServer) Definition(context.Context, *protocol.TextDocumentPositionParams) ([]protocol.Location, error) {
	return []protocol.Location{}, nil
}

func (UnimplementedServer) References(context.Context, *protocol.ReferenceParams) ([]protocol.Location, error) {
	return []protocol.Location{}, nil
}

func (UnimplementedServer) Formatting(context.Context, *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	return []protocol.TextEdit{}, nil
}

func (UnimplementedServer) Rename(context.Context, *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	return nil, nil
}

func (UnimplementedServer) FoldingRange(context.Context, *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	return []protocol.FoldingRange{}, nil
}

func (UnimplementedServer) WorkspaceSymbol(context.Context, *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	return []protocol.SymbolInformation{}, nil
}

func (UnimplementedServer) ExecuteCommand(context.Context, *protocol.ExecuteCommandParams) (json.RawMessage, error) {
	return nil, nil
}
