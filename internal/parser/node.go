package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeText returns the source text covered by a node.
func NodeText(node *tree_sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(source) || start > end {
		return ""
	}
	return string(source[start:end])
}

// Position returns the 1-based line and 0-based column of a node's start.
func Position(node *tree_sitter.Node) (line, column int) {
	if node == nil {
		return 1, 0
	}
	pos := node.StartPosition()
	return int(pos.Row) + 1, int(pos.Column)
}

// Walk visits node and all of its children in pre-order. Returning false
// from visit prunes the subtree below the current node.
func Walk(node *tree_sitter.Node, visit func(*tree_sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		Walk(node.Child(i), visit)
	}
}

// DottedName flattens a dotted_name or attribute node into "a.b.c" form.
// Returns "" for shapes that are not plain name paths.
func DottedName(node *tree_sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "identifier", "dotted_name":
		return NodeText(node, source)
	case "attribute":
		base := DottedName(node.ChildByFieldName("object"), source)
		attr := NodeText(node.ChildByFieldName("attribute"), source)
		if base == "" || attr == "" {
			return ""
		}
		return base + "." + attr
	}
	return ""
}

// IsStringNode reports whether a node is a Python string literal of any
// flavor (plain, f-string, concatenated).
func IsStringNode(node *tree_sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case "string", "concatenated_string":
		return true
	}
	return false
}

// StringLiteralValue extracts the textual content of a string literal,
// dropping quotes and prefixes. Concatenated strings and `+`-joined string
// literals are flattened; f-string interpolations contribute their source
// text verbatim (best effort, this is a heuristic scanner).
func StringLiteralValue(node *tree_sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "string":
		var sb strings.Builder
		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			child := node.Child(i)
			switch child.Kind() {
			case "string_content", "escape_sequence":
				sb.WriteString(NodeText(child, source))
			case "interpolation":
				sb.WriteString(NodeText(child, source))
			}
		}
		return sb.String(), true
	case "concatenated_string":
		var sb strings.Builder
		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			if part, ok := StringLiteralValue(node.Child(i), source); ok {
				sb.WriteString(part)
			}
		}
		return sb.String(), true
	case "binary_operator":
		// "a" + "b" style concatenation
		left, lok := StringLiteralValue(node.ChildByFieldName("left"), source)
		right, rok := StringLiteralValue(node.ChildByFieldName("right"), source)
		if lok && rok && NodeText(node.ChildByFieldName("operator"), source) == "+" {
			return left + right, true
		}
		// One string side is still worth inspecting.
		if lok {
			return left, true
		}
		if rok {
			return right, true
		}
	}
	return "", false
}
