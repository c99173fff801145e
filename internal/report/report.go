// Package report renders finding lists into the supported output formats:
// json, sarif and html, plus a terminal summary.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/standardbeagle/datamut/internal/types"
)

// Emitter renders one report format.
type Emitter interface {
	Emit(w io.Writer, findings []types.Finding) error
}

// New returns the emitter for a format name.
func New(format string) (Emitter, error) {
	switch format {
	case "json":
		return &JSONEmitter{}, nil
	case "sarif":
		return &SARIFEmitter{}, nil
	case "html":
		return &HTMLEmitter{}, nil
	}
	return nil, fmt.Errorf("unsupported format %q (want html, json or sarif)", format)
}

// Stats summarizes a finding list for report headers.
type Stats struct {
	TotalFindings  int            `json:"total_findings"`
	BySeverity     map[string]int `json:"by_severity"`
	ByLibrary      map[string]int `json:"by_library"`
	ByMutationType map[string]int `json:"by_mutation_type"`
	FilesAnalyzed  int            `json:"files_analyzed"`
}

// Summarize computes the stats for a finding list.
func Summarize(findings []types.Finding) Stats {
	stats := Stats{
		TotalFindings:  len(findings),
		BySeverity:     make(map[string]int),
		ByLibrary:      make(map[string]int),
		ByMutationType: make(map[string]int),
	}
	files := make(map[string]struct{})
	for _, f := range findings {
		stats.BySeverity[string(f.Severity)]++
		stats.ByLibrary[f.Library]++
		stats.ByMutationType[f.MutationType]++
		files[f.FilePath] = struct{}{}
	}
	stats.FilesAnalyzed = len(files)
	return stats
}

// severityOrder lists the levels from most to least severe for display.
var severityOrder = []types.Severity{
	types.SeverityCritical,
	types.SeverityHigh,
	types.SeverityMedium,
	types.SeverityLow,
}

// sortedKeys returns map keys in sorted order for stable output.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
