package types

import (
	"fmt"
	"strings"
)

// Severity classifies how risky a detected mutation is.
// Values are ordered; comparisons use the numeric weight.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// severityWeights maps each severity to its exit-code weight.
var severityWeights = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Weight returns the numeric weight used for ordering and exit-code decisions.
// Unknown values weigh -1 so they never trip a threshold.
func (s Severity) Weight() int {
	if w, ok := severityWeights[s]; ok {
		return w
	}
	return -1
}

// IsValid reports whether s is one of the four known levels.
func (s Severity) IsValid() bool {
	_, ok := severityWeights[s]
	return ok
}

// AtLeast reports whether s is at or above min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Weight() >= min.Weight()
}

// SARIFLevel maps the severity onto a SARIF result level.
func (s Severity) SARIFLevel() string {
	switch s {
	case SeverityLow:
		return "note"
	case SeverityMedium:
		return "warning"
	case SeverityHigh, SeverityCritical:
		return "error"
	default:
		return "none"
	}
}

// ColorClass returns the Bootstrap color class used by the HTML report.
func (s Severity) ColorClass() string {
	switch s {
	case SeverityLow:
		return "secondary"
	case SeverityMedium:
		return "warning"
	case SeverityHigh:
		return "danger"
	case SeverityCritical:
		return "dark"
	default:
		return "light"
	}
}

// ParseSeverity converts a case-insensitive name into a Severity.
func ParseSeverity(name string) (Severity, error) {
	s := Severity(strings.ToUpper(strings.TrimSpace(name)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown severity %q (want LOW, MEDIUM, HIGH or CRITICAL)", name)
	}
	return s, nil
}

// MaxSeverity returns the highest severity present in findings,
// or LOW for an empty list.
func MaxSeverity(findings []Finding) Severity {
	max := SeverityLow
	for _, f := range findings {
		if f.Severity.Weight() > max.Weight() {
			max = f.Severity
		}
	}
	return max
}

// ExceedsThreshold reports whether any finding is at or above min.
// The CLI uses this to decide the process exit status.
func ExceedsThreshold(findings []Finding, min Severity) bool {
	for _, f := range findings {
		if f.Severity.AtLeast(min) {
			return true
		}
	}
	return false
}
