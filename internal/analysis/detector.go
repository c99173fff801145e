package analysis

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/datamut/internal/parser"
	"github.com/standardbeagle/datamut/internal/rules"
	"github.com/standardbeagle/datamut/internal/types"
)

// Detector is one traversal pass over a parsed file. Each detector owns its
// own per-file state and emits findings through the sink, so partial results
// survive a mid-traversal failure.
type Detector interface {
	Name() string
	Detect(file *parser.ParsedFile, ctx *Context, sink *Sink)
}

// Sink collects findings during one detector run.
type Sink struct {
	findings []types.Finding
}

// Emit appends a finding. Findings are never mutated after emission.
func (s *Sink) Emit(f types.Finding) {
	s.findings = append(s.findings, f)
}

// Findings returns everything emitted so far.
func (s *Sink) Findings() []types.Finding {
	return s.findings
}

// chainLink is one rule-matching call inside a method chain.
type chainLink struct {
	library  string
	function string
	rule     *rules.Rule
	call     *tree_sitter.Node
}

// chainLinks walks a method chain from its outermost call inward and
// collects every link whose resolved (library, function) matches a rule.
// The result is reversed into execution order (innermost first).
func chainLinks(outermost *tree_sitter.Node, res *resolver) []chainLink {
	var links []chainLink
	current := outermost
	for current != nil {
		if lib, fn, ok := res.resolveCall(current); ok {
			if rule := res.catalog.Rule(lib, fn); rule != nil {
				links = append(links, chainLink{library: lib, function: fn, rule: rule, call: current})
			}
		}
		current = innerCall(current)
	}
	// Reverse to execution order.
	for i, j := 0, len(links)-1; i < j; i, j = i+1, j-1 {
		links[i], links[j] = links[j], links[i]
	}
	return links
}

// innerCall returns the next call inward in a chain (the receiver of this
// call's method), or nil when the chain root is reached.
func innerCall(call *tree_sitter.Node) *tree_sitter.Node {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "attribute" {
		return nil
	}
	obj := fn.ChildByFieldName("object")
	if obj == nil || obj.Kind() != "call" {
		return nil
	}
	return obj
}

// chainRoot returns the innermost call of the chain containing call.
func chainRoot(call *tree_sitter.Node) *tree_sitter.Node {
	current := call
	for {
		next := innerCall(current)
		if next == nil {
			return current
		}
		current = next
	}
}

// markInnerCalls records the node identity of every call strictly inside
// the chain starting at call, so later visits skip them.
func markInnerCalls(call *tree_sitter.Node, inner map[uintptr]struct{}) {
	for c := innerCall(call); c != nil; c = innerCall(c) {
		inner[c.Id()] = struct{}{}
	}
}
