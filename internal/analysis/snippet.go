package analysis

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// snippet extracts the source text a finding points at. Tree-sitter gives
// exact start and end rows, so multi-line expressions come out whole.
func snippet(node *tree_sitter.Node, lines []string) string {
	if node == nil || len(lines) == 0 {
		return ""
	}
	start := int(node.StartPosition().Row)
	end := int(node.EndPosition().Row)
	if start < 0 || start >= len(lines) {
		return ""
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if end == start {
		return strings.TrimSpace(lines[start])
	}
	parts := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		parts = append(parts, strings.TrimRight(lines[i], " \t"))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// statementNode climbs to the nearest enclosing statement so findings on
// nested expressions report the statement's position, matching how a
// reviewer reads the file.
func statementNode(node *tree_sitter.Node) *tree_sitter.Node {
	current := node
	for current != nil {
		kind := current.Kind()
		if kind == "expression_statement" || strings.HasSuffix(kind, "_statement") || kind == "assignment" {
			return current
		}
		parent := current.Parent()
		if parent == nil || parent.Kind() == "module" || parent.Kind() == "block" {
			return current
		}
		current = parent
	}
	return node
}
