package types

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Finding is one reported occurrence of a suspected data mutation or
// sensitive literal. Findings are created once by a detector and never
// mutated afterwards; renderers consume them read-only.
type Finding struct {
	FilePath     string         `json:"file_path"`
	Line         int            `json:"line_number"`
	Column       int            `json:"column_offset"`
	Library      string         `json:"library"`
	FunctionName string         `json:"function_name"`
	MutationType string         `json:"mutation_type"`
	Severity     Severity       `json:"severity"`
	CodeSnippet  string         `json:"code_snippet"`
	Notes        string         `json:"notes,omitempty"`
	RuleID       string         `json:"rule_id,omitempty"`
	ExtraContext map[string]any `json:"extra_context,omitempty"`
}

// EffectiveRuleID returns the originating rule ID, defaulting to
// "<library>.<function>" for synthesized findings without a catalogue rule.
func (f Finding) EffectiveRuleID() string {
	if f.RuleID != "" {
		return f.RuleID
	}
	return f.Library + "." + f.FunctionName
}

// UniqueID is a stable fingerprint of the finding location and subject,
// usable for deduplication across repeated scans of the same content.
func (f Finding) UniqueID() uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%s:%d:%d:%s", f.FilePath, f.Line, f.Column, f.FunctionName))
}

// String renders a compact one-line description for terminal output.
func (f Finding) String() string {
	return fmt.Sprintf("%s:%d:%d [%s] %s.%s (%s)",
		f.FilePath, f.Line, f.Column, f.Severity, f.Library, f.FunctionName, f.MutationType)
}
