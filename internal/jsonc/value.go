package jsonc

// FindNodeAtOffset returns the innermost node containing offset, or nil.
func FindNodeAtOffset(root *Node, offset int, includeRightBound bool) *Node {
	if root == nil || !root.Contains(offset, includeRightBound) {
		return nil
	}
	for _, child := range root.Children {
		if offset < child.Offset {
			break
		}
		if found := FindNodeAtOffset(child, offset, includeRightBound); found != nil {
			return found
		}
	}
	return root
}

// NodeValue decodes node into plain Go values: map[string]any for objects,
// []any for arrays and the scalar value otherwise. Properties without a
// value are left out; the last duplicate key wins.
func NodeValue(node *Node) any {
	if node == nil {
		return nil
	}
	switch node.Type {
	case ObjectNode:
		obj := make(map[string]any, len(node.Children))
		for _, prop := range node.Children {
			if len(prop.Children) != 2 {
				continue
			}
			if key, ok := prop.Children[0].Value.(string); ok {
				obj[key] = NodeValue(prop.Children[1])
			}
		}
		return obj
	case ArrayNode:
		arr := make([]any, 0, len(node.Children))
		for _, child := range node.Children {
			arr = append(arr, NodeValue(child))
		}
		return arr
	case PropertyNode:
		if len(node.Children) == 2 {
			return NodeValue(node.Children[1])
		}
		return nil
	default:
		return node.Value
	}
}

// Walk calls fn for node and every node below it in source order until fn
// returns false.
func Walk(node *Node, fn func(*Node) bool) bool {
	if node == nil {
		return true
	}
	if !fn(node) {
		return false
	}
	for _, child := range node.Children {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}
