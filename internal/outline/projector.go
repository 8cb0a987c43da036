// Package outline projects the tracked document's tree into the items an
// editor's tree view shows, and keeps the view in step with edits.
package outline

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/stixoutline/internal/config"
	"github.com/oakwood-commons/stixoutline/internal/host"
	"github.com/oakwood-commons/stixoutline/internal/icons"
	"github.com/oakwood-commons/stixoutline/internal/jsonc"
	"github.com/oakwood-commons/stixoutline/internal/query"
	"github.com/oakwood-commons/stixoutline/internal/tracker"
)

// ChangeKind says how much of the tree a Change invalidates.
type ChangeKind int

const (
	// DocumentReplaced follows a switch of the active document.
	DocumentReplaced ChangeKind = iota
	// SubtreeChanged invalidates the item with the change's ID and its
	// descendants.
	SubtreeChanged
	// FullRefresh invalidates every item.
	FullRefresh
)

func (k ChangeKind) String() string {
	switch k {
	case DocumentReplaced:
		return "documentReplaced"
	case SubtreeChanged:
		return "subtreeChanged"
	case FullRefresh:
		return "fullRefresh"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change is a tree data notification. ID is Root unless Kind is
// SubtreeChanged.
type Change struct {
	Kind ChangeKind
	ID   Identity
	Path jsonc.Path
}

// Projector is the tree data source. It is not safe for concurrent use;
// hosts serialize calls.
type Projector struct {
	window   host.Window
	tracker  *tracker.Tracker
	prompter host.Prompter
	contexts host.ContextSetter
	icons    *icons.Resolver
	log      logr.Logger
	cfg      config.Config

	queries *query.Env
	enabled bool
	changes host.Emitter[Change]
}

// Option configures a Projector.
type Option func(*Projector)

// WithTracker sets the tracker. By default the projector builds one with
// parser options taken from the configuration.
func WithTracker(t *tracker.Tracker) Option {
	return func(p *Projector) { p.tracker = t }
}

// WithPrompter sets where rename asks for the new label.
func WithPrompter(pr host.Prompter) Option {
	return func(p *Projector) { p.prompter = pr }
}

// WithContextSetter sets where the enablement flag is published.
func WithContextSetter(cs host.ContextSetter) Option {
	return func(p *Projector) { p.contexts = cs }
}

// WithIcons sets the icon resolver.
func WithIcons(r *icons.Resolver) Option {
	return func(p *Projector) { p.icons = r }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(p *Projector) { p.log = log }
}

// WithConfig sets the initial configuration.
func WithConfig(cfg config.Config) Option {
	return func(p *Projector) { p.cfg = cfg }
}

// New returns a projector reading the active editor from window. The
// outline stays disabled until OnActiveDocumentChanged runs.
func New(window host.Window, opts ...Option) (*Projector, error) {
	cfg, err := config.Default()
	if err != nil {
		return nil, err
	}
	p := &Projector{window: window, cfg: cfg, log: logr.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	if p.icons == nil {
		if p.icons, err = icons.New(nil, icons.DefaultOptions()); err != nil {
			return nil, fmt.Errorf("icon resolver: %w", err)
		}
	}
	if p.tracker == nil {
		p.tracker = tracker.New(
			tracker.WithLogger(p.log),
			tracker.WithParser(tracker.JSONCParser{Options: ParseOptions(p.cfg)}))
	}
	return p, nil
}

// ParseOptions maps the parser section of cfg onto jsonc options.
func ParseOptions(cfg config.Config) jsonc.ParseOptions {
	return jsonc.ParseOptions{
		DisallowComments:   !cfg.Parser.AllowComments,
		AllowTrailingComma: cfg.Parser.AllowTrailingComma,
	}
}

// Tracker exposes the tracker behind the projector.
func (p *Projector) Tracker() *tracker.Tracker { return p.tracker }

// Enabled reports whether the active document is one the outline shows.
func (p *Projector) Enabled() bool { return p.enabled }

// AutoRefresh reports whether edits refresh the outline.
func (p *Projector) AutoRefresh() bool { return p.cfg.Outline.AutoRefresh }

// Subscribe registers fn for change notifications.
func (p *Projector) Subscribe(fn func(Change)) (cancel func()) {
	return p.changes.Subscribe(fn)
}

// resolve maps an identity onto the current tree through its path. Root is
// the top-level value itself; offsets past the snapshot resolve to nothing.
func (p *Projector) resolve(id Identity) *jsonc.Node {
	if id == Root {
		return p.tracker.Tree()
	}
	if id < 0 || int(id) >= len(p.tracker.Text()) {
		return nil
	}
	return p.tracker.ResolveNode(p.tracker.ResolvePath(int(id)))
}

// Children returns the identities below id in source order.
func (p *Projector) Children(id Identity) []Identity {
	if !p.enabled {
		return nil
	}
	node := p.resolve(id)
	if node == nil {
		return nil
	}
	children := node.ValueChildren()
	out := make([]Identity, 0, len(children))
	for _, c := range children {
		if p.resolves(c) {
			out = append(out, Identity(c.Offset))
		}
	}
	return out
}

// resolves reports whether n's offset leads back to n. Broken input and
// duplicate keys produce nodes whose identity lands on a different node;
// those are left out so every identity handed out resolves to itself.
func (p *Projector) resolves(n *jsonc.Node) bool {
	return p.resolve(Identity(n.Offset)) == n
}

// Item returns the presentation of id, or false if it no longer resolves.
func (p *Projector) Item(id Identity) (Item, bool) {
	if !p.enabled {
		return Item{}, false
	}
	node := p.resolve(id)
	if node == nil {
		return Item{}, false
	}
	return p.item(node), true
}

// Refresh re-parses and invalidates the whole tree.
func (p *Projector) Refresh() {
	p.tracker.Reparse()
	p.notify(Change{Kind: FullRefresh, ID: Root})
}

// RefreshNode re-parses and invalidates the subtree under id.
func (p *Projector) RefreshNode(id Identity) {
	p.tracker.Reparse()
	if id < 0 {
		p.notify(Change{Kind: FullRefresh, ID: Root})
		return
	}
	p.notify(Change{Kind: SubtreeChanged, ID: id, Path: p.tracker.ResolvePath(int(id))})
}

// OnActiveDocumentChanged re-reads the active editor, publishes whether the
// outline applies to it and rebuilds the tree.
func (p *Projector) OnActiveDocumentChanged(ctx context.Context) {
	var ed host.Editor
	if p.window != nil {
		ed = p.window.ActiveEditor()
	}
	p.enabled = p.enabledFor(ed)
	if p.contexts != nil {
		if err := p.contexts.SetContext(ctx, p.cfg.Outline.ContextKey, p.enabled); err != nil {
			p.log.Error(err, "failed to publish outline context", "key", p.cfg.Outline.ContextKey)
		}
	}
	p.tracker.SetEditor(ed)
	p.tracker.Reparse()
	p.notify(Change{Kind: DocumentReplaced, ID: Root})
}

func (p *Projector) enabledFor(ed host.Editor) bool {
	if ed == nil {
		return false
	}
	doc := ed.Document()
	return doc != nil && p.cfg.OutlineEnabledFor(doc.Scheme(), doc.LanguageID())
}

// OnDocumentEdited refreshes the parts of the tree an edit touched. Each
// change is scoped to the container enclosing its start, resolved against
// the tree as it was before the edit. Changes in a batch apply one after
// another, so each start is first mapped back through the earlier changes.
func (p *Projector) OnDocumentEdited(ev host.ChangeEvent) {
	if !p.AutoRefresh() || ev.Document == nil {
		return
	}
	doc := p.tracker.Document()
	if doc == nil || doc.URI() != ev.Document.URI() {
		return
	}
	scopes := make([]Change, 0, len(ev.Changes))
	for k, c := range ev.Changes {
		offset, ok := preEditOffset(c.RangeOffset, ev.Changes[:k])
		if !ok {
			scopes = append(scopes, Change{Kind: FullRefresh, ID: Root})
			continue
		}
		path := p.tracker.ResolvePath(offset).Parent()
		node := p.tracker.ResolveNode(path)
		if len(path) == 0 || node == nil {
			scopes = append(scopes, Change{Kind: FullRefresh, ID: Root})
			continue
		}
		scopes = append(scopes, Change{Kind: SubtreeChanged, ID: Identity(node.Offset), Path: path})
	}
	p.tracker.Reparse()
	if len(scopes) == 0 {
		p.notify(Change{Kind: FullRefresh, ID: Root})
		return
	}
	seen := make(map[Identity]bool, len(scopes))
	for _, s := range scopes {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		p.notify(s)
	}
}

// preEditOffset maps an offset into the text left by earlier changes back
// to the text before all of them. It fails when the offset falls inside
// text one of those changes inserted.
func preEditOffset(offset int, earlier []host.Change) (int, bool) {
	for j := len(earlier) - 1; j >= 0; j-- {
		e := earlier[j]
		inserted := len(e.Text)
		switch {
		case offset <= e.RangeOffset:
		case offset >= e.RangeOffset+inserted:
			offset += e.RangeLength - inserted
		default:
			return 0, false
		}
	}
	return offset, true
}

// OnConfigChanged applies a new configuration. Enablement is recomputed for
// the tracked editor.
func (p *Projector) OnConfigChanged(cfg config.Config) {
	p.cfg = cfg
	p.enabled = p.enabledFor(p.tracker.Editor())
	p.log.V(1).Info("configuration changed",
		"autorefresh", cfg.Outline.AutoRefresh,
		"renameMode", string(cfg.Rename.Mode))
}

// Select selects and reveals r in the tracked editor.
func (p *Projector) Select(ctx context.Context, r host.Range) error {
	ed := p.tracker.Editor()
	if ed == nil {
		return host.ErrNoActiveEditor
	}
	if err := ed.Reveal(ctx, r); err != nil {
		return fmt.Errorf("reveal %s: %w", r, err)
	}
	return nil
}

// Find returns the object nodes whose decoded value matches the CEL
// expression expr, in document order.
func (p *Projector) Find(expr string) ([]Identity, error) {
	if p.queries == nil {
		env, err := query.NewEnv()
		if err != nil {
			return nil, err
		}
		p.queries = env
	}
	pred, err := p.queries.Compile(expr)
	if err != nil {
		return nil, err
	}
	if !p.enabled || p.tracker.Tree() == nil {
		return nil, nil
	}
	var objects []*jsonc.Node
	jsonc.Walk(p.tracker.Tree(), func(n *jsonc.Node) bool {
		if n.Type == jsonc.ObjectNode && (n.Parent == nil || p.resolves(n)) {
			objects = append(objects, n)
		}
		return true
	})
	matched := query.Filter(pred, objects, func(n *jsonc.Node) any { return jsonc.NodeValue(n) })
	out := make([]Identity, 0, len(matched))
	for _, n := range matched {
		out = append(out, Identity(n.Offset))
	}
	return out, nil
}

func (p *Projector) notify(c Change) {
	p.log.V(1).Info("tree data changed", "kind", c.Kind.String(), "id", int(c.ID), "path", c.Path.String())
	p.changes.Fire(c)
}
