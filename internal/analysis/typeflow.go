package analysis

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/datamut/internal/parser"
)

// TypeTracker is the per-detector, per-file map from local variable name to
// the library inferred to own its value. Bindings follow simple linear
// assignment order: last write wins, no branch or loop modeling.
type TypeTracker struct {
	bindings map[string]string
}

// NewTypeTracker returns an empty tracker.
func NewTypeTracker() *TypeTracker {
	return &TypeTracker{bindings: make(map[string]string)}
}

// Bind records name as owned by library, overwriting any earlier binding.
func (t *TypeTracker) Bind(name, library string) {
	t.bindings[name] = library
}

// Library returns the binding for name, if any.
func (t *TypeTracker) Library(name string) (string, bool) {
	lib, ok := t.bindings[name]
	return lib, ok
}

// assignmentParts unpacks a simple single-target assignment `name = expr`.
// Multi-target, attribute and subscript targets are not tracked.
func assignmentParts(node *tree_sitter.Node, source []byte) (name string, value *tree_sitter.Node, ok bool) {
	if node.Kind() != "assignment" {
		return "", nil, false
	}
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil || left.Kind() != "identifier" {
		return "", nil, false
	}
	return parser.NodeText(left, source), right, true
}

// subscriptBase returns the subscripted name for expressions like df[mask].
func subscriptBase(node *tree_sitter.Node, source []byte) (string, bool) {
	if node == nil || node.Kind() != "subscript" {
		return "", false
	}
	value := node.ChildByFieldName("value")
	if value == nil || value.Kind() != "identifier" {
		return "", false
	}
	return parser.NodeText(value, source), true
}
