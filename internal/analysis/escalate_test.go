package analysis

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/datamut/internal/parser"
	"github.com/standardbeagle/datamut/internal/rules"
	"github.com/standardbeagle/datamut/internal/types"
)

func firstCall(t *testing.T, file *parser.ParsedFile) *tree_sitter.Node {
	t.Helper()
	var call *tree_sitter.Node
	parser.Walk(file.Root(), func(n *tree_sitter.Node) bool {
		if call == nil && n.Kind() == "call" {
			call = n
		}
		return call == nil
	})
	require.NotNil(t, call)
	return call
}

func TestEscalationKeywordMatch(t *testing.T) {
	rule := &rules.Rule{
		Func:            "drop",
		Mutation:        "row drop",
		DefaultSeverity: types.SeverityHigh,
		ExtraChecks: &rules.ExtraCheck{
			ArgPresent:  &rules.ArgCheck{Name: "inplace", Value: true},
			SetSeverity: types.SeverityCritical,
		},
	}

	tests := []struct {
		src  string
		want types.Severity
	}{
		{`df.drop("a", inplace=True)` + "\n", types.SeverityCritical},
		{`df.drop("a", inplace=False)` + "\n", types.SeverityHigh},
		{`df.drop("a")` + "\n", types.SeverityHigh},
		{`df.drop("a", inplace="true")` + "\n", types.SeverityCritical},
	}
	for _, tt := range tests {
		file := parseSource(t, tt.src)
		call := firstCall(t, file)
		got, extra := applyExtraChecks(call, file.Source, rule, rule.DefaultSeverity)
		assert.Equal(t, tt.want, got, "source %q", tt.src)
		if tt.want == types.SeverityCritical {
			assert.Contains(t, extra, "matched_arg")
		} else {
			assert.NotContains(t, extra, "matched_arg")
		}
	}
}

func TestEscalationNeverLowers(t *testing.T) {
	rule := &rules.Rule{
		Func:            "rename",
		Mutation:        "schema change",
		DefaultSeverity: types.SeverityLow,
		ExtraChecks: &rules.ExtraCheck{
			ArgPresent:  &rules.ArgCheck{Name: "inplace", Value: true},
			SetSeverity: types.SeverityMedium,
		},
	}
	file := parseSource(t, "df.rename(columns=c, inplace=True)\n")
	call := firstCall(t, file)

	// The caller already carries a higher floor than the escalation target.
	got, _ := applyExtraChecks(call, file.Source, rule, types.SeverityHigh)
	assert.Equal(t, types.SeverityHigh, got)
}
