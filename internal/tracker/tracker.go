// Package tracker owns the text snapshot and parsed tree of the document
// the outline is showing.
package tracker

import (
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/stixoutline/internal/host"
	"github.com/oakwood-commons/stixoutline/internal/jsonc"
)

// Parser turns text into a tree and maps between offsets and paths.
type Parser interface {
	Parse(text string) (*jsonc.Node, []jsonc.ParseError)
	Location(text string, offset int) jsonc.Path
	FindNode(root *jsonc.Node, path jsonc.Path) *jsonc.Node
}

// JSONCParser is the default Parser, backed by package jsonc.
type JSONCParser struct {
	Options jsonc.ParseOptions
}

func (p JSONCParser) Parse(text string) (*jsonc.Node, []jsonc.ParseError) {
	return jsonc.ParseTree(text, p.Options)
}

func (JSONCParser) Location(text string, offset int) jsonc.Path {
	return jsonc.GetLocation(text, offset).Path
}

func (JSONCParser) FindNode(root *jsonc.Node, path jsonc.Path) *jsonc.Node {
	return jsonc.FindNodeAtPath(root, path)
}

// Tracker holds the current editor, its text at the last parse and the tree
// parsed from that text. It is not safe for concurrent use.
type Tracker struct {
	parser Parser
	log    logr.Logger

	editor   host.Editor
	text     string
	snapshot *host.Buffer
	tree     *jsonc.Node
	errs     []jsonc.ParseError
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithParser replaces the default parser.
func WithParser(p Parser) Option {
	return func(t *Tracker) {
		t.parser = p
	}
}

// WithLogger sets the logger used for re-parse events.
func WithLogger(log logr.Logger) Option {
	return func(t *Tracker) {
		t.log = log
	}
}

// New returns a tracker with no editor and an empty snapshot.
func New(opts ...Option) *Tracker {
	t := &Tracker{parser: JSONCParser{}, log: logr.Discard()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetEditor points the tracker at a new editor. The snapshot is left alone
// until the next Reparse.
func (t *Tracker) SetEditor(e host.Editor) {
	t.editor = e
}

// Editor is the editor whose document is tracked, or nil.
func (t *Tracker) Editor() host.Editor { return t.editor }

// Document is the tracked document, or nil.
func (t *Tracker) Document() host.Document {
	if t.editor == nil {
		return nil
	}
	return t.editor.Document()
}

// Reparse replaces the snapshot with the editor's current text and parses
// it. Without an editor the snapshot is empty and the tree nil.
func (t *Tracker) Reparse() {
	t.text, t.tree, t.errs = "", nil, nil
	doc := t.Document()
	if doc == nil {
		t.snapshot = host.NewBuffer("", "", "")
		t.log.V(1).Info("cleared snapshot, no active editor")
		return
	}
	t.text = doc.Text()
	t.snapshot = host.NewBuffer(doc.URI(), doc.LanguageID(), t.text)
	t.tree, t.errs = t.parser.Parse(t.text)
	t.log.V(1).Info("reparsed document",
		"uri", doc.URI(),
		"version", doc.Version(),
		"bytes", len(t.text),
		"parseErrors", len(t.errs))
}

// ResolvePath returns the path of the innermost value containing offset in
// the snapshot. Offsets outside the snapshot give an empty path.
func (t *Tracker) ResolvePath(offset int) jsonc.Path {
	if offset < 0 || offset > len(t.text) || t.tree == nil {
		return jsonc.Path{}
	}
	return t.parser.Location(t.text, offset)
}

// ResolveNode returns the node at path in the current tree, or nil.
func (t *Tracker) ResolveNode(path jsonc.Path) *jsonc.Node {
	if t.tree == nil {
		return nil
	}
	return t.parser.FindNode(t.tree, path)
}

// PositionAt converts an offset in the snapshot to a position. Positions
// computed this way stay consistent with the tree even after the document
// has moved on.
func (t *Tracker) PositionAt(offset int) host.Position {
	if t.snapshot == nil {
		return host.Position{}
	}
	return t.snapshot.PositionAt(offset)
}

// OffsetAt converts a position in the snapshot to an offset.
func (t *Tracker) OffsetAt(pos host.Position) int {
	if t.snapshot == nil {
		return 0
	}
	return t.snapshot.OffsetAt(pos)
}

// Slice returns snapshot text between two offsets.
func (t *Tracker) Slice(start, end int) string {
	if t.snapshot == nil {
		return ""
	}
	return t.snapshot.Slice(start, end)
}

// Text is the snapshot taken at the last Reparse.
func (t *Tracker) Text() string { return t.text }

// Tree is the tree parsed at the last Reparse, or nil.
func (t *Tracker) Tree() *jsonc.Node { return t.tree }

// ParseErrors are the recoverable errors found by the last Reparse.
func (t *Tracker) ParseErrors() []jsonc.ParseError { return t.errs }
