package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/datamut/internal/types"
)

func sampleFindings() []types.Finding {
	return []types.Finding{
		{
			FilePath:     "app.py",
			Line:         4,
			Column:       0,
			Library:      "pandas",
			FunctionName: "drop",
			MutationType: "row/col drop",
			Severity:     types.SeverityCritical,
			CodeSnippet:  `df.drop("a", inplace=True)`,
			Notes:        "Removes rows or columns.",
			RuleID:       "drop.row/col_drop",
		},
		{
			FilePath:     "db.py",
			Line:         10,
			Column:       4,
			Library:      "sql",
			FunctionName: "DELETE",
			MutationType: "sql delete",
			Severity:     types.SeverityCritical,
			CodeSnippet:  `cursor.execute(q)`,
		},
		{
			FilePath:     "app.py",
			Line:         9,
			Column:       0,
			Library:      "hardcoded",
			FunctionName: "magic_number",
			MutationType: "hardcoded magic number",
			Severity:     types.SeverityLow,
			CodeSnippet:  "limit = 9000",
		},
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "sarif", "html"} {
		e, err := New(format)
		require.NoError(t, err)
		assert.NotNil(t, e)
	}
	_, err := New("xml")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	stats := Summarize(sampleFindings())
	assert.Equal(t, 3, stats.TotalFindings)
	assert.Equal(t, 2, stats.FilesAnalyzed)
	assert.Equal(t, 2, stats.BySeverity["CRITICAL"])
	assert.Equal(t, 1, stats.BySeverity["LOW"])
	assert.Equal(t, 1, stats.ByLibrary["pandas"])
}

func TestJSONEmitter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONEmitter{}).Emit(&buf, sampleFindings()))

	var report struct {
		Metadata struct {
			Tool    string `json:"tool"`
			Summary Stats  `json:"summary"`
		} `json:"metadata"`
		Findings []types.Finding `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "datamut", report.Metadata.Tool)
	assert.Equal(t, 3, report.Metadata.Summary.TotalFindings)
	require.Len(t, report.Findings, 3)
	assert.Equal(t, "drop", report.Findings[0].FunctionName)
}

func TestJSONEmitterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONEmitter{}).Emit(&buf, nil))
	assert.Contains(t, buf.String(), `"findings": []`)
}

func TestSARIFEmitter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&SARIFEmitter{}).Emit(&buf, sampleFindings()))

	var report sarifReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "2.1.0", report.Version)
	require.Len(t, report.Runs, 1)

	run := report.Runs[0]
	assert.Equal(t, "datamut", run.Tool.Driver.Name)
	require.Len(t, run.Results, 3)

	first := run.Results[0]
	assert.Equal(t, "drop.row/col_drop", first.RuleID)
	assert.Equal(t, "error", first.Level)
	region := first.Locations[0].PhysicalLocation.Region
	assert.Equal(t, 4, region.StartLine)
	assert.Equal(t, 1, region.StartColumn, "SARIF columns are 1-based")

	// One rule definition per distinct rule ID.
	ids := make(map[string]int)
	for _, r := range run.Tool.Driver.Rules {
		ids[r.ID]++
	}
	assert.Len(t, ids, 3)
	for id, count := range ids {
		assert.Equal(t, 1, count, "rule %s duplicated", id)
	}
}

func TestHTMLEmitter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HTMLEmitter{}).Emit(&buf, sampleFindings()))

	html := buf.String()
	assert.Contains(t, html, "app.py")
	assert.Contains(t, html, "CRITICAL")
	assert.Contains(t, html, "badge bg-dark")
	assert.Contains(t, html, "drop")
}

func TestHTMLEmitterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HTMLEmitter{}).Emit(&buf, nil))
	assert.Contains(t, buf.String(), "No data mutations detected")
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, sampleFindings(), 5, 1)

	out := buf.String()
	assert.Contains(t, out, "Scanned 5 files (1 failed), 3 findings")
	assert.Contains(t, out, "CRITICAL 2")
	assert.Contains(t, out, "app.py:4:0 [CRITICAL] pandas.drop (row/col drop)")
	// Most severe level listed first.
	assert.Less(t, strings.Index(out, "CRITICAL"), strings.Index(out, "LOW"))
}
