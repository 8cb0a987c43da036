package server

import (
	"go.lsp.dev/protocol"

	"github.com/oakwood-commons/stixoutline/internal/host"
	"github.com/oakwood-commons/stixoutline/internal/outline"
)

// Client to server methods.
const (
	MethodInitialize        = "initialize"
	MethodInitialized       = "initialized"
	MethodShutdown          = "shutdown"
	MethodExit              = "exit"
	MethodDidOpen           = "textDocument/didOpen"
	MethodDidChange         = "textDocument/didChange"
	MethodDidClose          = "textDocument/didClose"
	MethodDidChangeConfig   = "workspace/didChangeConfiguration"
	MethodExecuteCommand    = "workspace/executeCommand"
	MethodSetActiveDocument = "stixOutline/setActiveDocument"
	MethodChildren          = "stixOutline/children"
	MethodItem              = "stixOutline/item"
	MethodFind              = "stixOutline/find"
)

// Server to client methods.
const (
	MethodDidChangeTreeData = "stixOutline/didChangeTreeData"
	MethodSetContext        = "stixOutline/setContext"
	MethodReveal            = "stixOutline/reveal"
	MethodPrompt            = "stixOutline/prompt"
	MethodApplyEdit         = "workspace/applyEdit"
)

// didChangeParams mirrors protocol.DidChangeTextDocumentParams with an
// optional range, which marks a full-text change when absent.
type didChangeParams struct {
	TextDocument   protocol.VersionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []contentChange                          `json:"contentChanges"`
}

type contentChange struct {
	Range *protocol.Range `json:"range,omitempty"`
	Text  string          `json:"text"`
}

// SettingsParams is the settings payload of didChangeConfiguration.
type SettingsParams struct {
	Settings struct {
		StixOutline struct {
			AutoRefresh *bool   `json:"autorefresh,omitempty"`
			RenameMode  *string `json:"renameMode,omitempty"`
		} `json:"stixOutline"`
	} `json:"settings"`
}

// DocumentParams names a document. An empty URI clears the active editor.
type DocumentParams struct {
	URI protocol.DocumentURI `json:"uri"`
}

// NodeParams addresses one outline item. Omit ID for the root.
type NodeParams struct {
	ID *int `json:"id,omitempty"`
}

func (p NodeParams) identity() outline.Identity {
	if p.ID == nil {
		return outline.Root
	}
	return outline.Identity(*p.ID)
}

// FindParams carries a CEL predicate.
type FindParams struct {
	Query string `json:"query"`
}

// ItemResult is an outline item with its path rendered as text.
type ItemResult struct {
	outline.Item
	Path string `json:"path"`
}

// TreeChange is sent with didChangeTreeData.
type TreeChange struct {
	Kind string `json:"kind"`
	ID   int    `json:"id"`
	Path string `json:"path"`
}

// ContextParams is sent with setContext.
type ContextParams struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// RevealParams is sent with reveal.
type RevealParams struct {
	URI   protocol.DocumentURI `json:"uri"`
	Range protocol.Range       `json:"range"`
}

// PromptParams is sent with prompt.
type PromptParams struct {
	Placeholder string `json:"placeholder"`
}

// PromptResult answers prompt. A null value cancels.
type PromptResult struct {
	Value *string `json:"value"`
}

func toHostPosition(p protocol.Position) host.Position {
	return host.Position{Line: int(p.Line), Character: int(p.Character)}
}

func toHostRange(r protocol.Range) host.Range {
	return host.Range{Start: toHostPosition(r.Start), End: toHostPosition(r.End)}
}

func toProtocolPosition(p host.Position) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Character)}
}

func toProtocolRange(r host.Range) protocol.Range {
	return protocol.Range{Start: toProtocolPosition(r.Start), End: toProtocolPosition(r.End)}
}
