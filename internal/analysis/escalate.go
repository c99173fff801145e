package analysis

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/datamut/internal/parser"
	"github.com/standardbeagle/datamut/internal/rules"
	"github.com/standardbeagle/datamut/internal/types"
)

// applyExtraChecks inspects a call site's keyword arguments against a rule's
// escalation check. On a match the severity is raised to the rule's
// escalated level (never lowered) and the matched argument is recorded in
// the extra context.
func applyExtraChecks(call *tree_sitter.Node, source []byte, rule *rules.Rule, severity types.Severity) (types.Severity, map[string]any) {
	extra := map[string]any{}
	if rule.ExtraChecks == nil || rule.ExtraChecks.ArgPresent == nil {
		return severity, extra
	}

	check := rule.ExtraChecks.ArgPresent
	if !callHasKeywordValue(call, source, check.Name, check.Value) {
		return severity, extra
	}

	extra["matched_arg"] = map[string]any{
		"name":  check.Name,
		"value": check.Value,
	}
	if escalated := rule.ExtraChecks.SetSeverity; escalated.IsValid() && escalated.Weight() > severity.Weight() {
		severity = escalated
	}
	return severity, extra
}

// callHasKeywordValue reports whether the call supplies keyword argument
// name with the expected literal value. Comparison is string-normalized:
// True/False keywords, numbers and quote-stripped strings all compare
// through their textual form.
func callHasKeywordValue(call *tree_sitter.Node, source []byte, name string, expected any) bool {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return false
	}
	want := strings.ToLower(fmt.Sprint(expected))
	count := args.ChildCount()
	for i := uint(0); i < count; i++ {
		arg := args.Child(i)
		if arg.Kind() != "keyword_argument" {
			continue
		}
		if parser.NodeText(arg.ChildByFieldName("name"), source) != name {
			continue
		}
		if normalizeLiteral(arg.ChildByFieldName("value"), source) == want {
			return true
		}
	}
	return false
}

// normalizeLiteral lowers a literal argument value to comparable text.
func normalizeLiteral(value *tree_sitter.Node, source []byte) string {
	if value == nil {
		return ""
	}
	switch value.Kind() {
	case "string", "concatenated_string":
		text, _ := parser.StringLiteralValue(value, source)
		return strings.ToLower(text)
	default:
		text := parser.NodeText(value, source)
		return strings.ToLower(strings.Trim(text, `'"`))
	}
}
