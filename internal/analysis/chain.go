package analysis

import (
	"fmt"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/datamut/internal/parser"
	"github.com/standardbeagle/datamut/internal/rules"
	"github.com/standardbeagle/datamut/internal/types"
)

// chainSeparator joins the ordered link names of a chain finding.
const chainSeparator = " → "

// ChainDetector collapses a sequence of chained mutating method calls into
// a single finding: chained mutations compound risk and per-call reporting
// is noisy. Chains with fewer than two matching links are left to the
// MutationDetector.
type ChainDetector struct {
	catalog *rules.Catalog
	policy  ChainPolicy
}

// NewChainDetector creates a chain detector with the given severity policy.
func NewChainDetector(catalog *rules.Catalog, policy ChainPolicy) *ChainDetector {
	if policy == "" {
		policy = ChainPolicyFixedFloor
	}
	return &ChainDetector{catalog: catalog, policy: policy}
}

func (d *ChainDetector) Name() string { return "chain" }

// Detect walks the tree once. Every call first marks its inner chain
// members so each chain is processed exactly once, from its outermost call.
func (d *ChainDetector) Detect(file *parser.ParsedFile, ctx *Context, sink *Sink) {
	tracker := NewTypeTracker()
	res := newResolver(d.catalog, ctx, tracker, file)
	lines := strings.Split(string(file.Source), "\n")
	inner := make(map[uintptr]struct{})
	processed := make(map[uintptr]struct{})

	parser.Walk(file.Root(), func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "assignment":
			res.observeAssignment(node)
		case "call":
			markInnerCalls(node, inner)
			if _, isInner := inner[node.Id()]; isInner {
				return true
			}
			root := chainRoot(node)
			if _, done := processed[root.Id()]; done {
				return true
			}
			links := chainLinks(node, res)
			if len(links) >= 2 {
				d.emitChain(node, links, res, lines, sink)
				processed[root.Id()] = struct{}{}
			}
		}
		return true
	})
}

// emitChain produces the single finding for a multi-link chain, positioned
// at the outermost call.
func (d *ChainDetector) emitChain(outermost *tree_sitter.Node, links []chainLink, res *resolver, lines []string, sink *Sink) {
	severity := d.chainSeverity(links, res.source)

	libSet := make(map[string]struct{})
	labelSet := make(map[string]struct{})
	functions := make([]string, 0, len(links))
	labels := make([]string, 0, len(links))
	for _, link := range links {
		functions = append(functions, link.function)
		libSet[link.library] = struct{}{}
		if _, seen := labelSet[link.rule.Mutation]; !seen {
			labelSet[link.rule.Mutation] = struct{}{}
			labels = append(labels, link.rule.Mutation)
		}
	}
	libraries := make([]string, 0, len(libSet))
	for lib := range libSet {
		libraries = append(libraries, lib)
	}
	sort.Strings(libraries)

	functionName := strings.Join(functions, chainSeparator)
	line, column := parser.Position(outermost)
	sink.Emit(types.Finding{
		FilePath:     res.path,
		Line:         line,
		Column:       column,
		Library:      strings.Join(libraries, "/"),
		FunctionName: functionName,
		MutationType: "method chaining with mutations",
		Severity:     severity,
		CodeSnippet:  snippet(outermost, lines),
		Notes: fmt.Sprintf("Chain of %d mutation functions: %s. Mutation types: %s. "+
			"Chained operations can compound data loss and make debugging difficult.",
			len(links), functionName, strings.Join(labels, ", ")),
		RuleID: "chain.multiple_mutations",
		ExtraContext: map[string]any{
			"chain_length":   len(links),
			"functions":      functions,
			"libraries":      libraries,
			"mutation_types": labels,
		},
	})
}

// chainSeverity applies the configured policy. The fixed-floor policy never
// reports a multi-link chain below HIGH; either policy lets a link's own
// escalation raise the result to CRITICAL.
func (d *ChainDetector) chainSeverity(links []chainLink, source []byte) types.Severity {
	if d.policy == ChainPolicyMaxLink {
		max := types.SeverityLow
		for _, link := range links {
			sev, _ := applyExtraChecks(link.call, source, link.rule, link.rule.DefaultSeverity)
			if sev.Weight() > max.Weight() {
				max = sev
			}
		}
		return max
	}

	severity := types.SeverityHigh
	for _, link := range links {
		escalated, _ := applyExtraChecks(link.call, source, link.rule, severity)
		if escalated == types.SeverityCritical {
			return types.SeverityCritical
		}
	}
	return severity
}
