package jsonc

import (
	"strconv"
	"strings"
)

// Segment is one step of a Path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns a segment addressing an object member.
func Key(name string) Segment { return Segment{Key: name} }

// Index returns a segment addressing an array element.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	if isIdent(s.Key) {
		return "." + s.Key
	}
	return "[" + strconv.Quote(s.Key) + "]"
}

// Path locates a node from the root of a tree.
type Path []Segment

// String renders the path as .a.b[0]["odd key"]. The root path renders as
// an empty string.
func (p Path) String() string {
	var b strings.Builder
	for _, seg := range p {
		b.WriteString(seg.String())
	}
	return b.String()
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1:len(p)-1]
}

// Equal reports whether both paths address the same location.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is an ancestor of (or equal to) p.
func (p Path) HasPrefix(prefix Path) bool {
	return len(prefix) <= len(p) && p[:len(prefix)].Equal(prefix)
}

// ParsePath parses a path written as String renders it. Dots may be
// omitted before the first key; bare bracket contents that are not numbers
// are taken as keys.
func ParsePath(input string) (Path, error) {
	var path Path
	i := 0
	for i < len(input) {
		switch ch := input[i]; {
		case ch == '.':
			i++
		case ch == '[':
			end := strings.IndexByte(input[i:], ']')
			if end == -1 {
				return nil, &PathSyntaxError{Input: input, Offset: i}
			}
			inner := input[i+1 : i+end]
			if strings.HasPrefix(inner, `"`) {
				// a quoted key may itself contain ']'
				closing := quotedEnd(input, i+1)
				if closing == -1 {
					return nil, &PathSyntaxError{Input: input, Offset: i}
				}
				key, err := strconv.Unquote(input[i+1 : closing+1])
				if err != nil || closing+1 >= len(input) || input[closing+1] != ']' {
					return nil, &PathSyntaxError{Input: input, Offset: i}
				}
				path = append(path, Key(key))
				i = closing + 2
				continue
			}
			if n, err := strconv.Atoi(inner); err == nil && n >= 0 {
				path = append(path, Index(n))
			} else {
				path = append(path, Key(inner))
			}
			i += end + 1
		default:
			j := i
			for j < len(input) && input[j] != '.' && input[j] != '[' {
				j++
			}
			path = append(path, Key(input[i:j]))
			i = j
		}
	}
	return path, nil
}

// PathSyntaxError reports a malformed path string.
type PathSyntaxError struct {
	Input  string
	Offset int
}

func (e *PathSyntaxError) Error() string {
	return "invalid path " + strconv.Quote(e.Input) + " at offset " + strconv.Itoa(e.Offset)
}

func quotedEnd(s string, start int) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c == '-' || c == '$':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// FindNodeAtPath returns the node at path below root, or nil when the path
// does not resolve. Keys match the first property with that name.
func FindNodeAtPath(root *Node, path Path) *Node {
	node := root
	for _, seg := range path {
		if node == nil {
			return nil
		}
		if !seg.IsIndex {
			if node.Type != ObjectNode {
				return nil
			}
			var next *Node
			for _, prop := range node.Children {
				if len(prop.Children) == 2 && prop.Children[0].Value == seg.Key {
					next = prop.Children[1]
					break
				}
			}
			node = next
			continue
		}
		if node.Type != ArrayNode || seg.Index < 0 || seg.Index >= len(node.Children) {
			return nil
		}
		node = node.Children[seg.Index]
	}
	return node
}

// PathOf returns the path from the tree root to node. For a property or a
// key, the path addresses the property's value.
func PathOf(node *Node) Path {
	if node == nil {
		return nil
	}
	if node.Type == PropertyNode && len(node.Children) > 0 {
		node = node.Children[0]
	}
	var rev Path
	for n := node; n.Parent != nil; n = n.Parent {
		parent := n.Parent
		switch parent.Type {
		case ArrayNode:
			rev = append(rev, Index(n.IndexInParent()))
		case PropertyNode:
			key, _ := parent.Children[0].Value.(string)
			rev = append(rev, Key(key))
		}
	}
	path := make(Path, len(rev))
	for i, seg := range rev {
		path[len(rev)-1-i] = seg
	}
	return path
}
