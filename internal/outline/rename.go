package outline

import (
	"context"
	"errors"
	"fmt"

	"github.com/oakwood-commons/stixoutline/internal/config"
	"github.com/oakwood-commons/stixoutline/internal/host"
	"github.com/oakwood-commons/stixoutline/internal/jsonc"
)

// ErrNoPrompter is returned by Rename when no prompter was configured.
var ErrNoPrompter = errors.New("no prompter configured")

// Rename asks for a new label and renames id. A cancelled prompt changes
// nothing.
func (p *Projector) Rename(ctx context.Context, id Identity) error {
	if p.prompter == nil {
		return ErrNoPrompter
	}
	value, ok, err := p.prompter.Prompt(ctx, p.cfg.Rename.Placeholder)
	if err != nil {
		return fmt.Errorf("rename prompt: %w", err)
	}
	if !ok {
		p.log.V(1).Info("rename cancelled", "id", int(id))
		return nil
	}
	return p.RenameTo(ctx, id, value)
}

// RenameTo replaces the rename target of id with value in quotes. The tree
// is re-read once the editor has committed the edit.
func (p *Projector) RenameTo(ctx context.Context, id Identity, value string) error {
	edit, ok := p.RenameEdit(id, value)
	if !ok {
		p.log.V(1).Info("rename target not found", "id", int(id))
		return nil
	}
	ed := p.tracker.Editor()
	if ed == nil {
		return host.ErrNoActiveEditor
	}
	if err := ed.ApplyEdits(ctx, []host.TextEdit{edit}); err != nil {
		return fmt.Errorf("apply rename: %w", err)
	}
	p.RefreshNode(id)
	return nil
}

// RenameEdit computes the edit renaming id without applying it. The value
// is written verbatim between quotes.
func (p *Projector) RenameEdit(id Identity, value string) (host.TextEdit, bool) {
	if id < 0 {
		return host.TextEdit{}, false
	}
	node := p.resolve(id)
	if node == nil {
		return host.TextEdit{}, false
	}
	target := renameTarget(node, p.cfg.Rename.Mode)
	return host.TextEdit{
		Range: host.Range{
			Start: p.tracker.PositionAt(target.Offset),
			End:   p.tracker.PositionAt(target.End()),
		},
		NewText: `"` + value + `"`,
	}, true
}

func renameTarget(node *jsonc.Node, mode config.RenameMode) *jsonc.Node {
	parent := node.Parent
	if parent == nil || parent.Type != jsonc.PropertyNode || mode == config.RenameValue {
		return node
	}
	if key := node.KeyNode(); key != nil {
		return key
	}
	return node
}
