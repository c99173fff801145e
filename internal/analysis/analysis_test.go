package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/datamut/internal/parser"
	"github.com/standardbeagle/datamut/internal/rules"
	"github.com/standardbeagle/datamut/internal/types"
)

func parseSource(t *testing.T, src string) *parser.ParsedFile {
	t.Helper()
	p, err := parser.NewPythonParser()
	require.NoError(t, err)
	parsed, err := p.Parse("test.py", []byte(src))
	require.NoError(t, err)
	t.Cleanup(parsed.Close)
	return parsed
}

func builtinCatalog(t *testing.T) *rules.Catalog {
	t.Helper()
	c, err := rules.LoadBuiltin()
	require.NoError(t, err)
	return c
}

// detect runs one detector over src and returns its findings.
func detect(t *testing.T, d Detector, src string) []types.Finding {
	t.Helper()
	file := parseSource(t, src)
	ctx := CollectContext(file)
	sink := &Sink{}
	d.Detect(file, ctx, sink)
	return sink.Findings()
}

func findingsFor(findings []types.Finding, function string) []types.Finding {
	var out []types.Finding
	for _, f := range findings {
		if f.FunctionName == function {
			out = append(out, f)
		}
	}
	return out
}
