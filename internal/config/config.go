package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/datamut/internal/analysis"
	dmerrors "github.com/standardbeagle/datamut/internal/errors"
	"github.com/standardbeagle/datamut/internal/types"
)

// ConfigFileName is the project-level configuration file.
const ConfigFileName = ".datamut.toml"

// Config is the scanner's full configuration. Zero values are filled from
// Default before use, so a partial TOML file only overrides what it names.
type Config struct {
	Scan      Scan      `toml:"scan"`
	Rules     Rules     `toml:"rules"`
	Detectors Detectors `toml:"detectors"`
	Watch     Watch     `toml:"watch"`
}

type Scan struct {
	Include     []string `toml:"include"`
	Exclude     []string `toml:"exclude"`
	Workers     int      `toml:"workers"`       // 0 = auto-detect (NumCPU)
	MaxFileSize int64    `toml:"max_file_size"` // bytes; larger files are skipped
	MinSeverity string   `toml:"min_severity"`  // exit-code threshold
}

type Rules struct {
	// Extra rule bundle directories loaded after the builtins. Later
	// bundles override earlier ones per (library, function).
	Dirs []string `toml:"dirs"`
}

type Detectors struct {
	ChainPolicy        string    `toml:"chain_policy"` // fixed-floor | max-link
	SafeNumbers        []float64 `toml:"safe_numbers"`
	MagicSeverity      string    `toml:"magic_severity"`
	FuzzyNameThreshold float64   `toml:"fuzzy_name_threshold"`
}

type Watch struct {
	DebounceMs int `toml:"debounce_ms"`
}

// Default returns the documented default configuration.
func Default() *Config {
	numeric := analysis.DefaultNumericPolicy()
	return &Config{
		Scan: Scan{
			Include:     []string{"**/*.py"},
			Exclude:     []string{"**/.git/**", "**/.*/**", "**/node_modules/**", "**/venv/**", "**/__pycache__/**"},
			Workers:     runtime.NumCPU(),
			MaxFileSize: 2 * 1024 * 1024,
			MinSeverity: string(types.SeverityHigh),
		},
		Detectors: Detectors{
			ChainPolicy:        string(analysis.ChainPolicyFixedFloor),
			SafeNumbers:        numeric.Allowed,
			MagicSeverity:      string(numeric.Severity),
			FuzzyNameThreshold: 0.85,
		},
		Watch: Watch{
			DebounceMs: 300,
		},
	}
}

// Load reads configuration for a scan rooted at rootDir: defaults, overlaid
// with .datamut.toml from the root when present. A missing file is not an
// error; a malformed one is.
func Load(rootDir string) (*Config, error) {
	cfg := Default()
	path := filepath.Join(rootDir, ConfigFileName)
	if err := loadFile(cfg, path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from an explicit path over the defaults.
// Here a missing file is an error, the user asked for it by name.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return dmerrors.NewScanError("config", fmt.Errorf("parse %s: %w", path, err))
	}
	return cfg.validate(path)
}

func (c *Config) validate(path string) error {
	switch analysis.ChainPolicy(c.Detectors.ChainPolicy) {
	case analysis.ChainPolicyFixedFloor, analysis.ChainPolicyMaxLink:
	default:
		return dmerrors.NewScanError("config",
			fmt.Errorf("%s: chain_policy %q (want %q or %q)",
				path, c.Detectors.ChainPolicy, analysis.ChainPolicyFixedFloor, analysis.ChainPolicyMaxLink))
	}
	if _, err := types.ParseSeverity(c.Scan.MinSeverity); err != nil {
		return dmerrors.NewScanError("config", fmt.Errorf("%s: min_severity: %w", path, err))
	}
	if _, err := types.ParseSeverity(c.Detectors.MagicSeverity); err != nil {
		return dmerrors.NewScanError("config", fmt.Errorf("%s: magic_severity: %w", path, err))
	}
	if c.Detectors.FuzzyNameThreshold < 0 || c.Detectors.FuzzyNameThreshold > 1 {
		return dmerrors.NewScanError("config",
			fmt.Errorf("%s: fuzzy_name_threshold %v out of range [0, 1]", path, c.Detectors.FuzzyNameThreshold))
	}
	return nil
}

// MinSeverity returns the parsed exit-code threshold.
func (c *Config) MinSeverity() types.Severity {
	s, err := types.ParseSeverity(c.Scan.MinSeverity)
	if err != nil {
		return types.SeverityHigh
	}
	return s
}

// Workers returns the effective worker count.
func (c *Config) Workers() int {
	if c.Scan.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Scan.Workers
}

// AnalysisOptions maps the detector section onto analysis options.
func (c *Config) AnalysisOptions() analysis.Options {
	opts := analysis.DefaultOptions()
	opts.Chain = analysis.ChainPolicy(c.Detectors.ChainPolicy)
	if len(c.Detectors.SafeNumbers) > 0 {
		opts.Numeric.Allowed = c.Detectors.SafeNumbers
	}
	if s, err := types.ParseSeverity(c.Detectors.MagicSeverity); err == nil {
		opts.Numeric.Severity = s
	}
	if c.Detectors.FuzzyNameThreshold > 0 {
		opts.FuzzyNameThreshold = c.Detectors.FuzzyNameThreshold
	}
	return opts
}
