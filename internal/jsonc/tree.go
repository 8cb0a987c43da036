package jsonc

// NodeType is the structural kind of a Node.
type NodeType string

const (
	ObjectNode   NodeType = "object"
	ArrayNode    NodeType = "array"
	PropertyNode NodeType = "property"
	StringNode   NodeType = "string"
	NumberNode   NodeType = "number"
	BooleanNode  NodeType = "boolean"
	NullNode     NodeType = "null"
)

// IsContainer reports whether nodes of this type hold child values.
func (t NodeType) IsContainer() bool {
	return t == ObjectNode || t == ArrayNode
}

// IsScalar reports whether the type is a string, number, boolean or null.
func (t NodeType) IsScalar() bool {
	switch t {
	case StringNode, NumberNode, BooleanNode, NullNode:
		return true
	}
	return false
}

// Node is one element of a parsed tree. Offset and Length are byte
// positions in the parsed text. A property holds its key and, when
// present, its value as Children[0] and Children[1].
type Node struct {
	Type        NodeType
	Offset      int
	Length      int
	ColonOffset int // properties only; -1 when the colon is missing
	Value       any
	Children    []*Node
	Parent      *Node
}

// End is the offset just past the node.
func (n *Node) End() int { return n.Offset + n.Length }

// Contains reports whether offset falls inside the node. The right bound is
// included when includeRightBound is set.
func (n *Node) Contains(offset int, includeRightBound bool) bool {
	return (offset >= n.Offset && offset < n.End()) || (includeRightBound && offset == n.End())
}

// PropertyKey returns the key when n is the value of a property.
func (n *Node) PropertyKey() (string, bool) {
	if n.Parent == nil || n.Parent.Type != PropertyNode || len(n.Parent.Children) == 0 {
		return "", false
	}
	key, ok := n.Parent.Children[0].Value.(string)
	return key, ok
}

// KeyNode returns the key node of the property n is the value of.
func (n *Node) KeyNode() *Node {
	if n.Parent == nil || n.Parent.Type != PropertyNode || len(n.Parent.Children) == 0 {
		return nil
	}
	return n.Parent.Children[0]
}

// IndexInParent returns the position of n among its parent's children, or
// -1 when n has no parent.
func (n *Node) IndexInParent() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// Property returns the value node of the first property named key.
func (n *Node) Property(key string) *Node {
	if n.Type != ObjectNode {
		return nil
	}
	for _, prop := range n.Children {
		if len(prop.Children) == 2 && prop.Children[0].Value == key {
			return prop.Children[1]
		}
	}
	return nil
}

// ValueChildren returns the value nodes directly below n: the value of each
// object property that has one, or each array element.
func (n *Node) ValueChildren() []*Node {
	switch n.Type {
	case ObjectNode:
		out := make([]*Node, 0, len(n.Children))
		for _, prop := range n.Children {
			if len(prop.Children) == 2 {
				out = append(out, prop.Children[1])
			}
		}
		return out
	case ArrayNode:
		return n.Children
	}
	return nil
}

// ParseTree parses text into a tree. Errors are recovered from and returned
// alongside the best tree that could be built. The tree is nil only when
// the text holds no value.
func ParseTree(text string, opts ParseOptions) (*Node, []ParseError) {
	var errs []ParseError
	current := &Node{Type: ArrayNode, Offset: -1, Length: -1}

	add := func(n *Node) *Node {
		current.Children = append(current.Children, n)
		return n
	}
	closeProperty := func(end int) {
		if current.Type == PropertyNode {
			current.Length = end - current.Offset
			current = current.Parent
		}
	}
	closeContainer := func(offset, length int) bool {
		closeProperty(offset + length)
		current.Length = offset + length - current.Offset
		current = current.Parent
		closeProperty(offset + length)
		return true
	}

	Visit(text, Visitor{
		OnObjectBegin: func(offset, _ int) bool {
			current = add(&Node{Type: ObjectNode, Offset: offset, Length: -1, Parent: current})
			return true
		},
		OnObjectProperty: func(name string, offset, length int) bool {
			current = add(&Node{Type: PropertyNode, Offset: offset, Length: -1, ColonOffset: -1, Parent: current})
			current.Children = append(current.Children, &Node{
				Type: StringNode, Value: name, Offset: offset, Length: length, Parent: current,
			})
			return true
		},
		OnObjectEnd: closeContainer,
		OnArrayBegin: func(offset, _ int) bool {
			current = add(&Node{Type: ArrayNode, Offset: offset, Length: -1, Parent: current})
			return true
		},
		OnArrayEnd: closeContainer,
		OnLiteralValue: func(value any, offset, length int) bool {
			add(&Node{Type: typeOf(value), Value: value, Offset: offset, Length: length, Parent: current})
			closeProperty(offset + length)
			return true
		},
		OnSeparator: func(sep byte, offset, _ int) bool {
			if current.Type == PropertyNode {
				switch sep {
				case ':':
					current.ColonOffset = offset
				case ',':
					closeProperty(offset)
				}
			}
			return true
		},
		OnError: func(code ParseErrorCode, offset, length int) bool {
			errs = append(errs, ParseError{Code: code, Offset: offset, Length: length})
			return true
		},
	}, opts)

	if len(current.Children) == 0 {
		return nil, errs
	}
	root := current.Children[0]
	root.Parent = nil
	return root, errs
}

func typeOf(value any) NodeType {
	switch value.(type) {
	case string:
		return StringNode
	case float64:
		return NumberNode
	case bool:
		return BooleanNode
	default:
		return NullNode
	}
}
