// Package host defines what the outline needs from a text editor and
// provides an in-memory implementation of it.
package host

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoActiveEditor is returned when an operation needs an active editor.
	ErrNoActiveEditor = errors.New("no active editor")
	// ErrUnknownDocument is returned for a URI that is not open.
	ErrUnknownDocument = errors.New("unknown document")
)

// Position is a zero-based line and character. Characters count UTF-16
// code units, as editors speaking LSP do.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Before reports whether p comes strictly before other.
func (p Position) Before(other Position) bool {
	return p.Line < other.Line || (p.Line == other.Line && p.Character < other.Character)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Character+1)
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Change is one replacement inside a content change event. RangeOffset and
// RangeLength are byte offsets into the text before the change.
type Change struct {
	Range       Range
	RangeOffset int
	RangeLength int
	Text        string
}

// ChangeEvent is a batch of changes applied to one document.
type ChangeEvent struct {
	Document Document
	Changes  []Change
}

// TextEdit replaces Range with NewText. Ranges of edits in one batch refer
// to the document before any of them is applied.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// Document is a read-only view of an open text document.
type Document interface {
	URI() string
	Scheme() string
	LanguageID() string
	Version() int
	Text() string
	PositionAt(offset int) Position
	OffsetAt(pos Position) int
}

// Editor is a document shown to the user.
type Editor interface {
	Document() Document
	// ApplyEdits returns once the edits are committed to the document, so a
	// read after it returns sees the new text.
	ApplyEdits(ctx context.Context, edits []TextEdit) error
	// Reveal selects r and scrolls it into view.
	Reveal(ctx context.Context, r Range) error
}

// Window knows which editor is active.
type Window interface {
	ActiveEditor() Editor
}

// Prompter asks the user for a line of text. ok is false when the user
// cancelled.
type Prompter interface {
	Prompt(ctx context.Context, placeholder string) (value string, ok bool, err error)
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(ctx context.Context, placeholder string) (string, bool, error)

func (f PromptFunc) Prompt(ctx context.Context, placeholder string) (string, bool, error) {
	return f(ctx, placeholder)
}

// ContextSetter publishes a context key that the host uses to show or hide
// UI for the outline.
type ContextSetter interface {
	SetContext(ctx context.Context, key string, value any) error
}
