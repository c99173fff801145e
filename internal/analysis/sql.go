package analysis

import (
	"strings"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/datamut/internal/parser"
	"github.com/standardbeagle/datamut/internal/rules"
	"github.com/standardbeagle/datamut/internal/types"
)

// maxSQLTextLen bounds the sql_text recorded in a finding's extra context.
const maxSQLTextLen = 100

// SQLDetector finds SQL mutation statements embedded in string literals.
// It tracks which local variables hold SQL-looking strings so that
// `query = "DELETE ..."` followed by `cursor.execute(query)` still reports.
type SQLDetector struct {
	catalog  *rules.Catalog
	keywords map[string]struct{}
}

// NewSQLDetector creates an SQL detector. The keyword list comes from the
// catalogue's sql rule set, so user bundles can extend it.
func NewSQLDetector(catalog *rules.Catalog) *SQLDetector {
	keywords := make(map[string]struct{})
	for _, fn := range catalog.Functions("sql") {
		keywords[strings.ToUpper(fn)] = struct{}{}
	}
	return &SQLDetector{catalog: catalog, keywords: keywords}
}

func (d *SQLDetector) Name() string { return "sql" }

// Detect walks the tree once, recording SQL-holding variables on assignment
// and inspecting every call's string arguments.
func (d *SQLDetector) Detect(file *parser.ParsedFile, ctx *Context, sink *Sink) {
	lines := strings.Split(string(file.Source), "\n")
	sqlVars := make(map[string]string)

	parser.Walk(file.Root(), func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "assignment":
			d.observeAssignment(node, file.Source, sqlVars)
		case "call":
			d.checkCall(node, file, sqlVars, lines, sink)
		}
		return true
	})
}

// observeAssignment records `name = "<sql-looking string>"` bindings.
// Last write wins, mirroring the type-flow tracker.
func (d *SQLDetector) observeAssignment(node *tree_sitter.Node, source []byte, sqlVars map[string]string) {
	name, value, ok := assignmentParts(node, source)
	if !ok {
		return
	}
	text, isString := parser.StringLiteralValue(value, source)
	if !isString {
		return
	}
	if d.looksLikeSQL(text) {
		sqlVars[name] = text
	} else {
		// A rebind to a non-SQL string clears the variable.
		delete(sqlVars, name)
	}
}

// checkCall inspects each argument of a call, keyword argument values
// included: string literals directly, identifiers through the tracked SQL
// variables.
func (d *SQLDetector) checkCall(call *tree_sitter.Node, file *parser.ParsedFile, sqlVars map[string]string, lines []string, sink *Sink) {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	count := args.ChildCount()
	for i := uint(0); i < count; i++ {
		arg := args.Child(i)
		if arg.Kind() == "keyword_argument" {
			arg = arg.ChildByFieldName("value")
			if arg == nil {
				continue
			}
		}
		var text string
		switch arg.Kind() {
		case "identifier":
			tracked, ok := sqlVars[parser.NodeText(arg, file.Source)]
			if !ok {
				continue
			}
			text = tracked
		default:
			literal, ok := parser.StringLiteralValue(arg, file.Source)
			if !ok {
				continue
			}
			text = literal
		}
		d.reportKeywords(call, file.Path, text, lines, sink)
	}
}

// reportKeywords emits one finding per distinct mutation keyword present in
// the SQL text, in order of first occurrence.
func (d *SQLDetector) reportKeywords(call *tree_sitter.Node, path, text string, lines []string, sink *Sink) {
	stmt := statementNode(call)
	line, column := parser.Position(stmt)
	sqlText := text
	if len(sqlText) > maxSQLTextLen {
		// Truncate on a rune boundary.
		cut := maxSQLTextLen
		for cut > 0 && !utf8.RuneStart(sqlText[cut]) {
			cut--
		}
		sqlText = sqlText[:cut]
	}

	for _, keyword := range d.mutationKeywords(text) {
		rule := d.catalog.Rule("sql", keyword)
		if rule == nil {
			continue
		}
		sink.Emit(types.Finding{
			FilePath:     path,
			Line:         line,
			Column:       column,
			Library:      "sql",
			FunctionName: keyword,
			MutationType: rule.Mutation,
			Severity:     rule.DefaultSeverity,
			CodeSnippet:  snippet(stmt, lines),
			Notes:        rule.Notes,
			RuleID:       rule.ID(),
			ExtraContext: map[string]any{
				"sql_text": sqlText,
			},
		})
	}
}

// looksLikeSQL reports whether a string contains at least one mutation
// keyword. Very short strings never qualify.
func (d *SQLDetector) looksLikeSQL(text string) bool {
	if len(text) < 3 {
		return false
	}
	return len(d.mutationKeywords(text)) > 0
}

// mutationKeywords returns the distinct mutation keywords found in text,
// preserving first-occurrence order. Matching is word-based: the upper-cased
// text is split on non-letter runs so substrings inside longer words do not
// count.
func (d *SQLDetector) mutationKeywords(text string) []string {
	words := strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return r < 'A' || r > 'Z'
	})
	seen := make(map[string]struct{})
	var found []string
	for _, word := range words {
		if _, isKeyword := d.keywords[word]; !isKeyword {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		found = append(found, word)
	}
	return found
}
