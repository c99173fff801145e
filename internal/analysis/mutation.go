package analysis

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/datamut/internal/parser"
	"github.com/standardbeagle/datamut/internal/rules"
	"github.com/standardbeagle/datamut/internal/types"
)

// MutationDetector reports individual data mutation calls: catalogue-matched
// single calls plus synthesized boolean-indexing findings. Calls belonging
// to a multi-link mutation chain are left to the ChainDetector.
type MutationDetector struct {
	catalog *rules.Catalog
}

// NewMutationDetector creates a mutation detector over the given catalogue.
func NewMutationDetector(catalog *rules.Catalog) *MutationDetector {
	return &MutationDetector{catalog: catalog}
}

func (d *MutationDetector) Name() string { return "mutation" }

// Detect walks the tree once, tracking variable bindings in assignment
// order and matching each call site against the catalogue.
func (d *MutationDetector) Detect(file *parser.ParsedFile, ctx *Context, sink *Sink) {
	tracker := NewTypeTracker()
	res := newResolver(d.catalog, ctx, tracker, file)
	lines := strings.Split(string(file.Source), "\n")
	skip := make(map[uintptr]struct{})

	parser.Walk(file.Root(), func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "assignment":
			d.checkBooleanIndexing(node, res, lines, sink)
			res.observeAssignment(node)
		case "call":
			d.checkCall(node, res, lines, skip, sink)
		}
		return true
	})
}

// checkCall matches one call site against the catalogue. When the call
// heads a chain with two or more rule-matching links, the links are marked
// and skipped here so the chain detector reports them exactly once.
func (d *MutationDetector) checkCall(call *tree_sitter.Node, res *resolver, lines []string, skip map[uintptr]struct{}, sink *Sink) {
	if _, skipped := skip[call.Id()]; skipped {
		return
	}

	links := chainLinks(call, res)
	if len(links) >= 2 {
		for _, link := range links {
			skip[link.call.Id()] = struct{}{}
		}
		return
	}

	library, function, ok := res.resolveCall(call)
	if !ok {
		return
	}
	rule := d.catalog.Rule(library, function)
	if rule == nil {
		return
	}

	severity, extra := applyExtraChecks(call, res.source, rule, rule.DefaultSeverity)
	line, column := parser.Position(call)
	sink.Emit(types.Finding{
		FilePath:     res.path,
		Line:         line,
		Column:       column,
		Library:      library,
		FunctionName: function,
		MutationType: rule.Mutation,
		Severity:     severity,
		CodeSnippet:  snippet(call, lines),
		Notes:        rule.Notes,
		RuleID:       rule.ID(),
		ExtraContext: extra,
	})
}

// checkBooleanIndexing synthesizes a finding for `name = frame[condition]`
// when frame is bound to the relational-data library. Negated filters (~)
// explicitly exclude rows and score higher.
func (d *MutationDetector) checkBooleanIndexing(node *tree_sitter.Node, res *resolver, lines []string, sink *Sink) {
	targetName, value, ok := assignmentParts(node, res.source)
	if !ok || value.Kind() != "subscript" {
		return
	}
	indexedName, isName := subscriptBase(value, res.source)
	if !isName {
		return
	}
	if lib, bound := res.tracker.Library(indexedName); !bound || lib != "pandas" {
		return
	}

	code := snippet(node, lines)
	severity := types.SeverityMedium
	notes := fmt.Sprintf("Boolean indexing on DataFrame %q can filter out rows and reduce dataset size; audit for data loss.", indexedName)
	hasNegation := strings.Contains(code, "~")
	if hasNegation {
		severity = types.SeverityHigh
		notes = fmt.Sprintf("Negative boolean indexing (~) on DataFrame %q explicitly excludes rows; review carefully for data loss.", indexedName)
	}

	line, column := parser.Position(node)
	sink.Emit(types.Finding{
		FilePath:     res.path,
		Line:         line,
		Column:       column,
		Library:      "pandas",
		FunctionName: "boolean_indexing",
		MutationType: "dataframe boolean indexing/filtering",
		Severity:     severity,
		CodeSnippet:  code,
		Notes:        notes,
		RuleID:       "pandas.boolean_indexing",
		ExtraContext: map[string]any{
			"indexed_variable": indexedName,
			"target_variable":  targetName,
			"has_negation":     hasNegation,
		},
	})
}
