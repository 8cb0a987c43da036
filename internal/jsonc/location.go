package jsonc

// Location describes where an offset sits in a document.
type Location struct {
	// Path to the innermost value containing the offset. An offset at the
	// start of a value, or inside a property key, addresses that value.
	Path Path
	// PreviousNode is the key or literal that ends at or encloses the
	// offset, if any. It is detached from any tree.
	PreviousNode *Node
	// IsAtPropertyKey is set when the offset is where a property key is
	// expected or inside one.
	IsAtPropertyKey bool
}

// GetLocation computes the Location of offset in text. Offsets outside the
// text yield an empty path.
func GetLocation(text string, offset int) Location {
	var loc Location
	var segs Path
	if offset < 0 || offset > len(text) {
		return loc
	}

	setPrevious := func(value any, off, length int, typ NodeType) {
		loc.PreviousNode = &Node{Type: typ, Value: value, Offset: off, Length: length, ColonOffset: -1}
	}

	Visit(text, Visitor{
		OnObjectBegin: func(off, _ int) bool {
			if offset <= off {
				return false
			}
			loc.PreviousNode = nil
			loc.IsAtPropertyKey = offset > off
			segs = append(segs, Key(""))
			return true
		},
		OnObjectProperty: func(name string, off, length int) bool {
			if offset < off {
				return false
			}
			setPrevious(name, off, length, PropertyNode)
			segs[len(segs)-1] = Key(name)
			return offset > off+length
		},
		OnObjectEnd: func(off, _ int) bool {
			if offset <= off {
				return false
			}
			loc.PreviousNode = nil
			segs = segs[:len(segs)-1]
			return true
		},
		OnArrayBegin: func(off, _ int) bool {
			if offset <= off {
				return false
			}
			loc.PreviousNode = nil
			segs = append(segs, Index(0))
			return true
		},
		OnArrayEnd: func(off, _ int) bool {
			if offset <= off {
				return false
			}
			loc.PreviousNode = nil
			segs = segs[:len(segs)-1]
			return true
		},
		OnLiteralValue: func(value any, off, length int) bool {
			if offset < off {
				return false
			}
			setPrevious(value, off, length, typeOf(value))
			return offset > off+length
		},
		OnSeparator: func(sep byte, off, _ int) bool {
			if offset <= off {
				return false
			}
			switch {
			case sep == ':' && loc.PreviousNode != nil && loc.PreviousNode.Type == PropertyNode:
				loc.PreviousNode.ColonOffset = off
				loc.IsAtPropertyKey = false
				loc.PreviousNode = nil
			case sep == ',':
				last := len(segs) - 1
				if segs[last].IsIndex {
					segs[last].Index++
				} else {
					loc.IsAtPropertyKey = true
					segs[last] = Key("")
				}
				loc.PreviousNode = nil
			}
			return true
		},
	}, ParseOptions{})

	loc.Path = segs
	return loc
}
