package analysis

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/datamut/internal/types"
)

func TestSQLDetectorLiteralArgument(t *testing.T) {
	src := `cursor.execute("DELETE FROM users WHERE id = 1")
`
	findings := detect(t, NewSQLDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "sql", f.Library)
	assert.Equal(t, "DELETE", f.FunctionName)
	assert.Equal(t, types.SeverityCritical, f.Severity)
	assert.Equal(t, "DELETE FROM users WHERE id = 1", f.ExtraContext["sql_text"])
}

func TestSQLDetectorMultipleKeywords(t *testing.T) {
	src := `cursor.execute("DELETE FROM t; INSERT INTO t VALUES (1)")
`
	findings := detect(t, NewSQLDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 2)
	assert.Equal(t, "DELETE", findings[0].FunctionName)
	assert.Equal(t, "INSERT", findings[1].FunctionName)
}

func TestSQLDetectorRepeatedKeywordReportedOnce(t *testing.T) {
	src := `cursor.execute("DELETE FROM a; DELETE FROM b")
`
	findings := detect(t, NewSQLDetector(builtinCatalog(t)), src)
	assert.Len(t, findings, 1)
}

func TestSQLDetectorTrackedVariable(t *testing.T) {
	src := `query = "UPDATE users SET name = 'x'"
cursor.execute(query)
`
	findings := detect(t, NewSQLDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 1)
	assert.Equal(t, "UPDATE", findings[0].FunctionName)
	assert.Equal(t, types.SeverityHigh, findings[0].Severity)
	assert.Equal(t, 2, findings[0].Line, "finding points at the execution site")
}

func TestSQLDetectorKeywordArgumentLiteral(t *testing.T) {
	src := `cursor.execute(sql="DELETE FROM users WHERE id = 1")
`
	findings := detect(t, NewSQLDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 1)
	assert.Equal(t, "DELETE", findings[0].FunctionName)
	assert.Equal(t, types.SeverityCritical, findings[0].Severity)
	assert.Equal(t, "DELETE FROM users WHERE id = 1", findings[0].ExtraContext["sql_text"])
}

func TestSQLDetectorKeywordArgumentTrackedVariable(t *testing.T) {
	src := `query = "UPDATE users SET active = 0"
cursor.execute(statement=query)
`
	findings := detect(t, NewSQLDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 1)
	assert.Equal(t, "UPDATE", findings[0].FunctionName)
	assert.Equal(t, 2, findings[0].Line)
}

func TestSQLDetectorRebindClearsVariable(t *testing.T) {
	src := `query = "DROP TABLE users"
query = "just a message"
cursor.execute(query)
`
	findings := detect(t, NewSQLDetector(builtinCatalog(t)), src)
	assert.Empty(t, findings)
}

func TestSQLDetectorConcatenatedLiteral(t *testing.T) {
	src := `cursor.execute("TRUNCATE " + "TABLE audit_log")
`
	findings := detect(t, NewSQLDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 1)
	assert.Equal(t, "TRUNCATE", findings[0].FunctionName)
}

func TestSQLDetectorIgnoresNonKeywordWords(t *testing.T) {
	// "updated" and "created_at" must not match UPDATE or CREATE.
	src := `log.info("updated the created_at column")
`
	findings := detect(t, NewSQLDetector(builtinCatalog(t)), src)
	assert.Empty(t, findings)
}

func TestSQLDetectorTruncatesLongStatements(t *testing.T) {
	long := "DELETE FROM t WHERE name = '"
	for len(long) < 150 {
		long += "x"
	}
	long += "'"
	src := "cursor.execute(\"" + long + "\")\n"
	findings := detect(t, NewSQLDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 1)
	sqlText, ok := findings[0].ExtraContext["sql_text"].(string)
	require.True(t, ok)
	assert.Len(t, sqlText, 100)
}

func TestSQLDetectorTruncationKeepsRuneBoundary(t *testing.T) {
	// The 29-byte prefix puts byte 100 in the middle of a two-byte rune.
	long := "DELETE FROM tb WHERE name = '" + strings.Repeat("é", 40) + "'"
	src := "cursor.execute(\"" + long + "\")\n"
	findings := detect(t, NewSQLDetector(builtinCatalog(t)), src)
	require.Len(t, findings, 1)

	sqlText, ok := findings[0].ExtraContext["sql_text"].(string)
	require.True(t, ok)
	assert.True(t, utf8.ValidString(sqlText))
	assert.Equal(t, 99, len(sqlText))
}
