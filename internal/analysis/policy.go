package analysis

import (
	"github.com/standardbeagle/datamut/internal/types"
)

// ChainPolicy selects how chain findings are scored.
type ChainPolicy string

const (
	// ChainPolicyFixedFloor scores every multi-link chain at HIGH, escalated
	// to CRITICAL when a link's own escalation check fires CRITICAL.
	ChainPolicyFixedFloor ChainPolicy = "fixed-floor"
	// ChainPolicyMaxLink scores a chain at the maximum of its links' own
	// (escalated) severities.
	ChainPolicyMaxLink ChainPolicy = "max-link"
)

// NumericPolicy is the swappable magic-number policy: the allow-set of
// benign literals and the severity assigned to everything else.
type NumericPolicy struct {
	Allowed  []float64
	Severity types.Severity
}

// Allows reports whether v is in the allow-set.
func (p NumericPolicy) Allows(v float64) bool {
	for _, a := range p.Allowed {
		if a == v {
			return true
		}
	}
	return false
}

// DefaultNumericPolicy keeps the allow-set deliberately small: only the
// most universally benign values.
func DefaultNumericPolicy() NumericPolicy {
	return NumericPolicy{
		Allowed:  []float64{0, 1, -1, 2, 10, 100, 0.5},
		Severity: types.SeverityLow,
	}
}

// Options tune detector behavior without touching the rule catalogue.
type Options struct {
	Chain              ChainPolicy
	Numeric            NumericPolicy
	FuzzyNameThreshold float64
}

// DefaultOptions returns the documented default policies.
func DefaultOptions() Options {
	return Options{
		Chain:              ChainPolicyFixedFloor,
		Numeric:            DefaultNumericPolicy(),
		FuzzyNameThreshold: 0.85,
	}
}
