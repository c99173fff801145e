package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hbollon/go-edlib"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/datamut/internal/parser"
	"github.com/standardbeagle/datamut/internal/rules"
	"github.com/standardbeagle/datamut/internal/types"
)

// maxDetectedValueLen bounds the detected_value recorded in extra context.
const maxDetectedValueLen = 100

// hardcodedCategory is one sensitive-value class: regex patterns matched
// against string content, plus variable-name substrings used as a secondary
// signal when no pattern fires.
type hardcodedCategory struct {
	name     string
	patterns []*regexp.Regexp
	varNames []string
}

// hardcodedCategories is checked in order; the first matching category wins.
// Patterns match the bare string content, quotes already stripped.
var hardcodedCategories = []hardcodedCategory{
	{
		name: "database_connection",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(mysql|postgresql|sqlite|mongodb|redis)://\S+`),
			regexp.MustCompile(`(?i)server\s*=\s*\S+`),
			regexp.MustCompile(`(?i)database\s*=\s*\S+`),
			regexp.MustCompile(`(?i)host\s*=\s*\S+`),
		},
		varNames: []string{"db_url", "database_url", "connection_string", "db_connection"},
	},
	{
		name: "credentials",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(password|pwd|pass)\s*=\s*\S+`),
			regexp.MustCompile(`(?i)(username|user|uid)\s*=\s*\S+`),
			regexp.MustCompile(`(?i)(secret|token|key)\s*=\s*\S+`),
		},
		varNames: []string{"password", "pwd", "pass", "username", "user", "secret"},
	},
	{
		name: "api_key",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*=\s*\S+`),
			regexp.MustCompile(`(?i)(access[_-]?token|accesstoken)\s*=\s*\S+`),
			regexp.MustCompile(`(?i)(bearer[_-]?token|bearertoken)\s*=\s*\S+`),
			regexp.MustCompile(`^[A-Za-z0-9]{32,}$`),
		},
		varNames: []string{"api_key", "apikey", "access_token", "token", "bearer_token"},
	},
	{
		name: "url_endpoint",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`https?://[^\s"']+`),
		},
		varNames: []string{"endpoint", "url", "uri", "base_url", "api_url"},
	},
	{
		name: "file_path",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^[C-Z]:\\`),
			regexp.MustCompile(`^/[^\s]*$`),
		},
		varNames: []string{"file_path", "filepath", "path", "directory", "dir"},
	},
	{
		name: "email_address",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`),
		},
		varNames: []string{"email", "email_address", "sender", "recipient"},
	},
	{
		name: "ip_address",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`),
		},
		varNames: []string{"ip", "ip_address", "host", "server"},
	},
	{
		name: "port_number",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)port\s*=\s*[0-9]{1,5}`),
		},
		varNames: []string{"port", "port_number"},
	},
}

// hardcodedDefaultSeverity backs categories the catalogue does not override.
var hardcodedDefaultSeverity = map[string]types.Severity{
	"credentials":         types.SeverityCritical,
	"api_key":             types.SeverityCritical,
	"database_connection": types.SeverityHigh,
	"ip_address":          types.SeverityHigh,
	"url_endpoint":        types.SeverityMedium,
	"file_path":           types.SeverityMedium,
	"email_address":       types.SeverityMedium,
	"port_number":         types.SeverityMedium,
	"magic_number":        types.SeverityLow,
}

// skippedStringValues are common literals never worth reporting.
var skippedStringValues = map[string]struct{}{
	"": {}, "none": {}, "null": {}, "true": {}, "false": {},
}

// HardcodedDetector finds sensitive or unexplained literals: credentials,
// connection strings, endpoints, paths and magic numbers.
type HardcodedDetector struct {
	catalog        *rules.Catalog
	numeric        NumericPolicy
	fuzzyThreshold float64
}

// NewHardcodedDetector creates a hardcoded-value detector tuned by opts.
func NewHardcodedDetector(catalog *rules.Catalog, opts Options) *HardcodedDetector {
	return &HardcodedDetector{
		catalog:        catalog,
		numeric:        opts.Numeric,
		fuzzyThreshold: opts.FuzzyNameThreshold,
	}
}

func (d *HardcodedDetector) Name() string { return "hardcoded" }

// Detect walks the tree once. Assignment right-hand sides are processed with
// the target name as context and their subtrees marked seen, so the
// standalone-literal pass never reports the same node twice.
func (d *HardcodedDetector) Detect(file *parser.ParsedFile, ctx *Context, sink *Sink) {
	lines := strings.Split(string(file.Source), "\n")
	seen := make(map[uintptr]struct{})

	parser.Walk(file.Root(), func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "assignment":
			d.checkAssignment(node, file, lines, seen, sink)
		case "string", "concatenated_string":
			if _, done := seen[node.Id()]; done {
				return false
			}
			markSubtree(node, seen)
			if value, ok := parser.StringLiteralValue(node, file.Source); ok {
				d.checkString(node, file, "", value, lines, sink)
			}
			return false
		case "integer", "float":
			if _, done := seen[node.Id()]; done {
				return true
			}
			seen[node.Id()] = struct{}{}
			d.checkNumber(node, file, "", lines, seen, sink)
		}
		return true
	})
}

// checkAssignment handles `name = literal` with the variable name as a
// secondary signal.
func (d *HardcodedDetector) checkAssignment(node *tree_sitter.Node, file *parser.ParsedFile, lines []string, seen map[uintptr]struct{}, sink *Sink) {
	name, value, ok := assignmentParts(node, file.Source)
	if !ok {
		return
	}
	varName := strings.ToLower(name)

	if text, isString := parser.StringLiteralValue(value, file.Source); isString {
		markSubtree(value, seen)
		d.checkString(node, file, varName, text, lines, sink)
		return
	}

	switch value.Kind() {
	case "integer", "float":
		markSubtree(value, seen)
		d.checkNumber(value, file, varName, lines, seen, sink)
	case "unary_operator":
		operand := value.ChildByFieldName("argument")
		if operand != nil && (operand.Kind() == "integer" || operand.Kind() == "float") {
			markSubtree(value, seen)
			d.checkNumber(operand, file, varName, lines, seen, sink)
		}
	}
}

// checkString runs the category pattern table, then falls back to the
// suspicious-variable-name heuristic.
func (d *HardcodedDetector) checkString(anchor *tree_sitter.Node, file *parser.ParsedFile, varName, value string, lines []string, sink *Sink) {
	if len(value) < 3 {
		return
	}
	if _, skip := skippedStringValues[strings.ToLower(value)]; skip {
		return
	}

	for _, cat := range hardcodedCategories {
		for _, pattern := range cat.patterns {
			if pattern.MatchString(value) {
				d.emit(anchor, file, cat.name, value, varName, lines, sink)
				return
			}
		}
	}

	if varName == "" {
		return
	}
	for _, cat := range hardcodedCategories {
		if !d.nameMatches(varName, cat.varNames) {
			continue
		}
		if likelyHardcoded(value, cat.name) {
			d.emit(anchor, file, cat.name, value, varName, lines, sink)
		}
		return
	}
}

// nameMatches reports whether a variable name carries one of the category's
// suspicious substrings, or is fuzzily close to one of them.
func (d *HardcodedDetector) nameMatches(varName string, suspicious []string) bool {
	for _, s := range suspicious {
		if strings.Contains(varName, s) {
			return true
		}
		score, err := edlib.StringsSimilarity(varName, s, edlib.JaroWinkler)
		if err == nil && float64(score) >= d.fuzzyThreshold {
			return true
		}
	}
	return false
}

// checkNumber reports any numeric literal outside the allow-set as a magic
// number. The literal node's unary minus parent, when present, supplies the
// sign and the reporting position.
func (d *HardcodedDetector) checkNumber(node *tree_sitter.Node, file *parser.ParsedFile, varName string, lines []string, seen map[uintptr]struct{}, sink *Sink) {
	anchor := node
	text := parser.NodeText(node, file.Source)
	if parent := node.Parent(); parent != nil && parent.Kind() == "unary_operator" {
		if parser.NodeText(parent.ChildByFieldName("operator"), file.Source) == "-" {
			anchor = parent
			text = "-" + text
			seen[parent.Id()] = struct{}{}
		}
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		// Hex, binary and complex literals are out of scope.
		return
	}
	if d.numeric.Allows(value) {
		return
	}
	d.emit(anchor, file, "magic_number", text, varName, lines, sink)
}

// emit builds one hardcoded-value finding. The catalogue's hardcoded rule
// set overrides the builtin severity table when present.
func (d *HardcodedDetector) emit(anchor *tree_sitter.Node, file *parser.ParsedFile, category, value, varName string, lines []string, sink *Sink) {
	severity, okSeverity := hardcodedDefaultSeverity[category]
	if !okSeverity {
		severity = types.SeverityMedium
	}
	mutationType := "hardcoded " + strings.ReplaceAll(category, "_", " ")
	notes := ""
	ruleID := "hardcoded." + category
	if rule := d.catalog.Rule("hardcoded", category); rule != nil {
		severity = rule.DefaultSeverity
		mutationType = rule.Mutation
		notes = rule.Notes
		ruleID = rule.ID()
	}
	if d.numeric.Severity != "" && category == "magic_number" {
		severity = d.numeric.Severity
	}

	detected := value
	if category == "credentials" || category == "api_key" {
		detected = maskValue(detected)
	}
	if len(detected) > maxDetectedValueLen {
		detected = detected[:maxDetectedValueLen] + "..."
	}

	extra := map[string]any{
		"detected_value": detected,
		"category":       category,
	}
	if varName != "" {
		extra["variable_name"] = varName
	}

	line, column := parser.Position(anchor)
	sink.Emit(types.Finding{
		FilePath:     file.Path,
		Line:         line,
		Column:       column,
		Library:      "hardcoded",
		FunctionName: category,
		MutationType: mutationType,
		Severity:     severity,
		CodeSnippet:  snippet(anchor, lines),
		Notes:        notes,
		RuleID:       ruleID,
		ExtraContext: extra,
	})
}

// likelyHardcoded applies per-category plausibility checks so obvious
// placeholders and malformed values do not fire on name alone.
func likelyHardcoded(value, category string) bool {
	switch category {
	case "credentials":
		placeholders := map[string]struct{}{
			"password": {}, "username": {}, "secret": {}, "token": {},
			"key": {}, "placeholder": {}, "example": {},
		}
		_, placeholder := placeholders[strings.ToLower(value)]
		return !placeholder && len(value) > 3
	case "file_path":
		hasSeparator := strings.ContainsAny(value, `/\`)
		return hasSeparator && !strings.HasPrefix(value, "http") && !strings.HasPrefix(value, "ftp")
	case "url_endpoint":
		return (strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")) && len(value) > 10
	case "email_address":
		at := strings.LastIndexByte(value, '@')
		return at > 0 && strings.Contains(value[at+1:], ".")
	case "ip_address":
		parts := strings.Split(value, ".")
		if len(parts) != 4 {
			return false
		}
		for _, part := range parts {
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 || n > 255 {
				return false
			}
		}
		return true
	}
	return true
}

// maskValue hides the middle of a sensitive value, keeping the first and
// last two characters.
func maskValue(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}

// markSubtree records node and every descendant as seen.
func markSubtree(node *tree_sitter.Node, seen map[uintptr]struct{}) {
	parser.Walk(node, func(n *tree_sitter.Node) bool {
		seen[n.Id()] = struct{}{}
		return true
	})
}
