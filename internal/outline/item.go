package outline

import (
	"strconv"

	"github.com/oakwood-commons/stixoutline/internal/host"
	"github.com/oakwood-commons/stixoutline/internal/icons"
	"github.com/oakwood-commons/stixoutline/internal/jsonc"
)

// Identity is the byte offset of a node's start in the snapshot it was
// produced from.
type Identity int

// Root addresses the synthetic root above the top-level value.
const Root Identity = -1

// Collapsible is the expansion state an item starts in. The values match
// the tree item states of common editor hosts.
type Collapsible int

const (
	CollapsibleNone Collapsible = iota
	Collapsed
	Expanded
)

func (c Collapsible) String() string {
	switch c {
	case Collapsed:
		return "collapsed"
	case Expanded:
		return "expanded"
	}
	return "none"
}

// Span is a half-open range [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Command is what a host runs when the item is activated.
type Command struct {
	Name  string     `json:"command"`
	Title string     `json:"title"`
	Span  Span       `json:"span"`
	Range host.Range `json:"range"`
}

// Item is the presentation of a single node.
type Item struct {
	ID           Identity    `json:"id"`
	Path         jsonc.Path  `json:"-"`
	Label        string      `json:"label"`
	Highlights   []Span      `json:"highlights,omitempty"`
	Collapsible  Collapsible `json:"collapsibleState"`
	Icon         icons.Icon  `json:"icon"`
	Command      Command     `json:"command"`
	ContextValue string      `json:"contextValue"`
}

var highlightedKeys = map[string]bool{"id": true, "type": true}

func (p *Projector) item(node *jsonc.Node) Item {
	label, highlights := p.label(node)
	return Item{
		ID:           Identity(node.Offset),
		Path:         jsonc.PathOf(node),
		Label:        label,
		Highlights:   highlights,
		Collapsible:  collapsibleState(node),
		Icon:         p.icon(node),
		Command:      p.command(node),
		ContextValue: string(node.Type),
	}
}

func (p *Projector) label(node *jsonc.Node) (string, []Span) {
	text := p.summary(node)
	if text == "" {
		text = p.tracker.Slice(node.Offset, node.End())
	}
	parent := node.Parent
	if parent == nil {
		return text, nil
	}
	if parent.Type == jsonc.ArrayNode {
		return strconv.Itoa(node.IndexInParent()) + ": " + text, nil
	}
	key, ok := node.PropertyKey()
	if !ok {
		return text, nil
	}
	var label string
	var start int
	if node.Type.IsContainer() {
		label = text + " " + key
		start = len(text) + 1
	} else {
		label = key + ": " + text
	}
	if highlightedKeys[key] {
		return label, []Span{{Start: start, End: start + len(key)}}
	}
	return label, nil
}

// summary renders "{ n }" or "[ n ]" for containers, leaving the count
// blank when there are no children, and "" for scalars.
func (p *Projector) summary(node *jsonc.Node) string {
	count := ""
	if len(node.Children) > 0 {
		count = strconv.Itoa(len(node.Children))
	}
	switch node.Type {
	case jsonc.ObjectNode:
		return "{ " + count + " }"
	case jsonc.ArrayNode:
		return "[ " + count + " ]"
	}
	return ""
}

func collapsibleState(node *jsonc.Node) Collapsible {
	switch node.Type {
	case jsonc.ObjectNode:
		return Expanded
	case jsonc.ArrayNode:
		if len(node.Children) == 1 {
			return Expanded
		}
		return Collapsed
	}
	return CollapsibleNone
}

func (p *Projector) icon(node *jsonc.Node) icons.Icon {
	if tag, ok := stixType(node); ok {
		return p.icons.STIX(tag)
	}
	if icon, ok := p.icons.Builtin(string(node.Type)); ok {
		return icon
	}
	return icons.Icon{}
}

// STIXType returns the STIX type tag of the object at id, if it has one.
func (p *Projector) STIXType(id Identity) (string, bool) {
	if !p.enabled {
		return "", false
	}
	node := p.resolve(id)
	if node == nil {
		return "", false
	}
	return stixType(node)
}

// stixType returns the string value of the first direct property named
// "type" of an object node.
func stixType(node *jsonc.Node) (string, bool) {
	if node.Type != jsonc.ObjectNode {
		return "", false
	}
	for _, prop := range node.Children {
		if len(prop.Children) == 0 || prop.Children[0].Value != "type" {
			continue
		}
		if len(prop.Children) < 2 || prop.Children[1].Type != jsonc.StringNode {
			return "", false
		}
		tag, ok := prop.Children[1].Value.(string)
		return tag, ok
	}
	return "", false
}

func (p *Projector) command(node *jsonc.Node) Command {
	return Command{
		Name:  CmdOpenSelection,
		Title: "Open selection",
		Span:  Span{Start: node.Offset, End: node.End()},
		Range: host.Range{
			Start: p.tracker.PositionAt(node.Offset),
			End:   p.tracker.PositionAt(node.End()),
		},
	}
}
