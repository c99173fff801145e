package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/datamut/internal/types"
)

func TestMutationDetectorTrackedVariable(t *testing.T) {
	src := `import pandas as pd

df = pd.DataFrame({"a": [1, 2]})
df.drop("a", axis=1)
`
	findings := detect(t, NewMutationDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "pandas", f.Library)
	assert.Equal(t, "drop", f.FunctionName)
	assert.Equal(t, types.SeverityHigh, f.Severity)
	assert.Equal(t, 4, f.Line)
	assert.Equal(t, `df.drop("a", axis=1)`, f.CodeSnippet)
	assert.NotContains(t, f.ExtraContext, "matched_arg")
}

func TestMutationDetectorInplaceEscalation(t *testing.T) {
	src := `import pandas as pd

df = pd.DataFrame({"a": [1, 2]})
df.drop("a", axis=1, inplace=True)
`
	findings := detect(t, NewMutationDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, types.SeverityCritical, f.Severity)
	matched, ok := f.ExtraContext["matched_arg"].(map[string]any)
	require.True(t, ok, "escalated finding must record matched_arg")
	assert.Equal(t, "inplace", matched["name"])
}

func TestMutationDetectorAliasCall(t *testing.T) {
	src := `import numpy as np

np.delete(arr, 0)
`
	findings := detect(t, NewMutationDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 1)
	assert.Equal(t, "numpy", findings[0].Library)
	assert.Equal(t, "delete", findings[0].FunctionName)
}

func TestMutationDetectorNamingConvention(t *testing.T) {
	// No import and no binding, but the receiver looks like a dataframe.
	src := `df_users[df_users.age > 30].drop("age", axis=1).dropna()
`
	findings := detect(t, NewMutationDetector(builtinCatalog(t)), src)
	// Two matching links form a chain, owned by the chain detector.
	assert.Empty(t, findings)

	chained := detect(t, NewChainDetector(builtinCatalog(t), ChainPolicyFixedFloor), src)
	require.Len(t, chained, 1)
	assert.Equal(t, "pandas", chained[0].Library)
}

func TestMutationDetectorUnknownLibraryIgnored(t *testing.T) {
	src := `import requests

session = requests.Session()
session.drop("x")
`
	findings := detect(t, NewMutationDetector(builtinCatalog(t)), src)
	assert.Empty(t, findings)
}

func TestMutationDetectorRebindClearsTracking(t *testing.T) {
	src := `import pandas as pd

df = pd.DataFrame({"a": [1]})
df = [1, 2, 3]
df.sort_values("a")
`
	findings := detect(t, NewMutationDetector(builtinCatalog(t)), src)
	// The rebind to a list is not tracked, but the old pandas binding
	// still stands: last recognized write wins.
	require.Len(t, findings, 1)
	assert.Equal(t, "sort_values", findings[0].FunctionName)
}

func TestBooleanIndexingFinding(t *testing.T) {
	src := `import pandas as pd

df = pd.DataFrame({"a": [1, 2]})
adults = df[df.age >= 18]
`
	findings := detect(t, NewMutationDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "boolean_indexing", f.FunctionName)
	assert.Equal(t, types.SeverityMedium, f.Severity)
	assert.Equal(t, "df", f.ExtraContext["indexed_variable"])
	assert.Equal(t, "adults", f.ExtraContext["target_variable"])
	assert.Equal(t, false, f.ExtraContext["has_negation"])
}

func TestBooleanIndexingNegationEscalates(t *testing.T) {
	src := `import pandas as pd

df = pd.DataFrame({"a": [1, 2]})
minors = df[~(df.age >= 18)]
`
	findings := detect(t, NewMutationDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 1)
	assert.Equal(t, types.SeverityHigh, findings[0].Severity)
	assert.Equal(t, true, findings[0].ExtraContext["has_negation"])
}

func TestBooleanIndexingPropagatesBinding(t *testing.T) {
	src := `import pandas as pd

df = pd.DataFrame({"a": [1, 2]})
subset = df[df.a > 0]
subset.dropna()
`
	findings := detect(t, NewMutationDetector(builtinCatalog(t)), src)
	dropna := findingsFor(findings, "dropna")
	require.Len(t, dropna, 1, "subscript assignment must propagate the pandas binding")
	assert.Equal(t, "pandas", dropna[0].Library)
}

func TestFindingPositionsRoundTrip(t *testing.T) {
	src := `import pandas as pd

df = pd.DataFrame({"a": [1, 2]})
df.fillna(0)
df.pop("a")
`
	findings := detect(t, NewMutationDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 2)

	lines := strings.Split(src, "\n")
	for _, f := range findings {
		require.Greater(t, f.Line, 0)
		require.LessOrEqual(t, f.Line, len(lines))
		assert.Contains(t, lines[f.Line-1], f.FunctionName,
			"line %d should contain %s", f.Line, f.FunctionName)
	}
}
