package host

import (
	"context"
	"fmt"
	"sort"
)

// Workspace is an in-memory Window over a set of open buffers. It is not
// safe for concurrent use; hosts serialize access to it.
type Workspace struct {
	docs     map[string]*Buffer
	active   *bufferEditor
	contexts map[string]any

	editorChanged Emitter[Editor]
	textChanged   Emitter[ChangeEvent]
	revealed      Emitter[Reveal]
}

// Reveal records a selection made through an editor.
type Reveal struct {
	URI   string
	Range Range
}

// NewWorkspace returns an empty workspace with no active editor.
func NewWorkspace() *Workspace {
	return &Workspace{docs: map[string]*Buffer{}, contexts: map[string]any{}}
}

// Open adds a buffer, replacing any buffer already open at uri. The active
// editor is unchanged.
func (w *Workspace) Open(uri, languageID, text string) *Buffer {
	buf := NewBuffer(uri, languageID, text)
	w.docs[uri] = buf
	if w.active != nil && w.active.buf.uri == uri {
		w.active = &bufferEditor{ws: w, buf: buf}
		w.editorChanged.Fire(w.active)
	}
	return buf
}

// Close removes a buffer. Closing the active buffer leaves no editor active.
func (w *Workspace) Close(uri string) error {
	if _, ok := w.docs[uri]; !ok {
		return fmt.Errorf("close %s: %w", uri, ErrUnknownDocument)
	}
	delete(w.docs, uri)
	if w.active != nil && w.active.buf.uri == uri {
		w.active = nil
		w.editorChanged.Fire(nil)
	}
	return nil
}

// Activate makes the buffer at uri the active editor. An empty uri
// deactivates the current editor.
func (w *Workspace) Activate(uri string) error {
	if uri == "" {
		if w.active != nil {
			w.active = nil
			w.editorChanged.Fire(nil)
		}
		return nil
	}
	buf, ok := w.docs[uri]
	if !ok {
		return fmt.Errorf("activate %s: %w", uri, ErrUnknownDocument)
	}
	if w.active != nil && w.active.buf == buf {
		return nil
	}
	w.active = &bufferEditor{ws: w, buf: buf}
	w.editorChanged.Fire(w.active)
	return nil
}

// ActiveEditor implements Window. It returns an untyped nil when no editor
// is active.
func (w *Workspace) ActiveEditor() Editor {
	if w.active == nil {
		return nil
	}
	return w.active
}

// Buffer returns the open buffer at uri.
func (w *Workspace) Buffer(uri string) (*Buffer, bool) {
	buf, ok := w.docs[uri]
	return buf, ok
}

// URIs lists open documents in sorted order.
func (w *Workspace) URIs() []string {
	uris := make([]string, 0, len(w.docs))
	for uri := range w.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// Apply applies changes in order, each against the text left by the
// previous one, then emits a single change event.
func (w *Workspace) Apply(uri string, changes []Change) error {
	buf, ok := w.docs[uri]
	if !ok {
		return fmt.Errorf("apply to %s: %w", uri, ErrUnknownDocument)
	}
	applied := make([]Change, 0, len(changes))
	for _, c := range changes {
		done, err := buf.Apply(c)
		if err != nil {
			return err
		}
		applied = append(applied, done)
	}
	if len(applied) > 0 {
		w.textChanged.Fire(ChangeEvent{Document: buf, Changes: applied})
	}
	return nil
}

// Replace swaps the whole text of the buffer at uri and emits a change
// event. Identical text is a no-op.
func (w *Workspace) Replace(uri, text string) error {
	buf, ok := w.docs[uri]
	if !ok {
		return fmt.Errorf("replace %s: %w", uri, ErrUnknownDocument)
	}
	if buf.text == text {
		return nil
	}
	c := buf.Replace(text)
	w.textChanged.Fire(ChangeEvent{Document: buf, Changes: []Change{c}})
	return nil
}

// SetContext implements ContextSetter.
func (w *Workspace) SetContext(_ context.Context, key string, value any) error {
	w.contexts[key] = value
	return nil
}

// Context returns a value stored with SetContext.
func (w *Workspace) Context(key string) (any, bool) {
	v, ok := w.contexts[key]
	return v, ok
}

// OnDidChangeActiveEditor subscribes to active editor switches. The editor
// is nil when none is active.
func (w *Workspace) OnDidChangeActiveEditor(fn func(Editor)) func() {
	return w.editorChanged.Subscribe(fn)
}

// OnDidChangeTextDocument subscribes to content changes of any buffer.
func (w *Workspace) OnDidChangeTextDocument(fn func(ChangeEvent)) func() {
	return w.textChanged.Subscribe(fn)
}

// OnDidReveal subscribes to selections made through Editor.Reveal.
func (w *Workspace) OnDidReveal(fn func(Reveal)) func() {
	return w.revealed.Subscribe(fn)
}

type bufferEditor struct {
	ws  *Workspace
	buf *Buffer
}

func (e *bufferEditor) Document() Document { return e.buf }

// ApplyEdits converts edits to changes and applies them from the end of the
// document backwards, so every range still refers to the original text.
func (e *bufferEditor) ApplyEdits(ctx context.Context, edits []TextEdit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := e.ws.docs[e.buf.uri]; !ok {
		return fmt.Errorf("apply edits to %s: %w", e.buf.uri, ErrUnknownDocument)
	}
	sorted := make([]TextEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].Range.Start.Before(sorted[i].Range.Start)
	})
	changes := make([]Change, 0, len(sorted))
	for _, edit := range sorted {
		changes = append(changes, Change{Range: edit.Range, Text: edit.NewText})
	}
	return e.ws.Apply(e.buf.uri, changes)
}

func (e *bufferEditor) Reveal(_ context.Context, r Range) error {
	e.ws.revealed.Fire(Reveal{URI: e.buf.uri, Range: r})
	return nil
}
