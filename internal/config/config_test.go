package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/datamut/internal/analysis"
	"github.com/standardbeagle/datamut/internal/types"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Contains(t, cfg.Scan.Include, "**/*.py")
	assert.Equal(t, types.SeverityHigh, cfg.MinSeverity())
	assert.Greater(t, cfg.Workers(), 0)

	opts := cfg.AnalysisOptions()
	assert.Equal(t, analysis.ChainPolicyFixedFloor, opts.Chain)
	assert.True(t, opts.Numeric.Allows(0.5))
	assert.False(t, opts.Numeric.Allows(42))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default().Scan.MinSeverity, cfg.Scan.MinSeverity)
}

func TestLoadPartialOverride(t *testing.T) {
	dir := t.TempDir()
	content := `
[scan]
min_severity = "medium"
workers = 2

[detectors]
chain_policy = "max-link"
safe_numbers = [0.0, 1.0]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, types.SeverityMedium, cfg.MinSeverity())
	assert.Equal(t, 2, cfg.Workers())
	// Untouched sections keep their defaults.
	assert.Contains(t, cfg.Scan.Include, "**/*.py")

	opts := cfg.AnalysisOptions()
	assert.Equal(t, analysis.ChainPolicyMaxLink, opts.Chain)
	assert.True(t, opts.Numeric.Allows(1))
	assert.False(t, opts.Numeric.Allows(100))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad chain policy", "[detectors]\nchain_policy = \"strictest\"\n"},
		{"bad severity", "[scan]\nmin_severity = \"severe\"\n"},
		{"bad threshold", "[detectors]\nfuzzy_name_threshold = 2.0\n"},
		{"not toml", "scan = [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(tt.content), 0o644))
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestLoadFileExplicitPathMustExist(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestMagicSeverityOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName),
		[]byte("[detectors]\nmagic_severity = \"MEDIUM\"\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.SeverityMedium, cfg.AnalysisOptions().Numeric.Severity)
}
