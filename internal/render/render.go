// Package render prints an outline as an ASCII tree.
package render

import (
	"github.com/mattn/go-runewidth"
	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/stixoutline/internal/outline"
)

// Source is the tree data the renderer walks. *outline.Projector
// implements it.
type Source interface {
	Children(id outline.Identity) []outline.Identity
	Item(id outline.Identity) (outline.Item, bool)
}

// Options controls tree output.
type Options struct {
	// MaxDepth limits tree depth (0 = unlimited).
	MaxDepth int
	// ExpandAll descends into collapsed items too.
	ExpandAll bool
	// Icons prefixes each line with the icon name.
	Icons bool
	// MaxLabelLen truncates labels wider than this many cells.
	// 0 or negative = no truncation.
	MaxLabelLen int
}

// elided marks children that were not printed.
const elided = "..."

// Outline renders the whole outline below the synthetic root. An empty
// outline renders as an empty string.
func Outline(src Source, opts Options) string {
	root, ok := src.Item(outline.Root)
	if !ok {
		return ""
	}
	tree := treeprint.NewWithRoot(formatLabel(root, opts))
	addChildren(tree, src, outline.Root, opts, 0)
	return tree.String()
}

// Matches renders each matched item as its own branch, labelled with its
// path, under a root naming the query.
func Matches(src Source, title string, ids []outline.Identity, opts Options) string {
	tree := treeprint.NewWithRoot(title)
	for _, id := range ids {
		item, ok := src.Item(id)
		if !ok {
			continue
		}
		path := item.Path.String()
		if path == "" {
			path = "."
		}
		branch := tree.AddMetaBranch(path, formatLabel(item, opts))
		addChildren(branch, src, id, opts, 1)
	}
	return tree.String()
}

func addChildren(branch treeprint.Tree, src Source, id outline.Identity, opts Options, depth int) {
	children := src.Children(id)
	if len(children) == 0 {
		return
	}
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		branch.AddNode(elided)
		return
	}
	for _, child := range children {
		item, ok := src.Item(child)
		if !ok {
			continue
		}
		addItem(branch, src, item, opts, depth)
	}
}

func addItem(branch treeprint.Tree, src Source, item outline.Item, opts Options, depth int) {
	label := formatLabel(item, opts)
	var child treeprint.Tree
	switch {
	case item.Collapsible == outline.CollapsibleNone:
		addLeaf(branch, item, label, opts)
		return
	case opts.Icons && item.Icon.Name != "":
		child = branch.AddMetaBranch(item.Icon.Name, label)
	default:
		child = branch.AddBranch(label)
	}
	if item.Collapsible == outline.Collapsed && !opts.ExpandAll {
		if len(src.Children(item.ID)) > 0 {
			child.AddNode(elided)
		}
		return
	}
	addChildren(child, src, item.ID, opts, depth+1)
}

func addLeaf(branch treeprint.Tree, item outline.Item, label string, opts Options) {
	if opts.Icons && item.Icon.Name != "" {
		branch.AddMetaNode(item.Icon.Name, label)
		return
	}
	branch.AddNode(label)
}

func formatLabel(item outline.Item, opts Options) string {
	if opts.MaxLabelLen <= 0 || runewidth.StringWidth(item.Label) <= opts.MaxLabelLen {
		return item.Label
	}
	if opts.MaxLabelLen <= len(elided) {
		return elided
	}
	return runewidth.Truncate(item.Label, opts.MaxLabelLen, elided)
}
