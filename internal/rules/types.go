package rules

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/datamut/internal/types"
)

// ArgCheck describes a keyword argument whose presence with a specific
// literal value escalates a rule's severity.
type ArgCheck struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// ExtraCheck is an optional escalation attached to a Rule. When the call
// site supplies the keyword argument with the expected value, the finding's
// severity is raised to SetSeverity. Escalation never lowers severity.
type ExtraCheck struct {
	ArgPresent  *ArgCheck      `yaml:"arg_present"`
	SetSeverity types.Severity `yaml:"set_severity"`
}

// Rule is a data-declared association between a function name and its
// default mutation severity and label. Immutable once loaded.
type Rule struct {
	Func            string         `yaml:"func"`
	Mutation        string         `yaml:"mutation"`
	DefaultSeverity types.Severity `yaml:"default_severity"`
	Notes           string         `yaml:"notes"`
	ExtraChecks     *ExtraCheck    `yaml:"extra_checks"`
}

// ID generates a stable rule identifier from the function and mutation label.
func (r *Rule) ID() string {
	label := strings.NewReplacer(" ", "_", "-", "_").Replace(r.Mutation)
	return r.Func + "." + label
}

// Meta carries bundle-level metadata: the canonical library name and the
// regex recognizing its conventional aliases (pd, np, ...).
type Meta struct {
	Library    string `yaml:"library"`
	AliasRegex string `yaml:"alias_regex"`
}

// Bundle is one rule set for one canonical library.
type Bundle struct {
	Meta  Meta    `yaml:"meta"`
	Rules []*Rule `yaml:"rules"`

	// aliasRe is the compiled alias pattern; nil means "never matches"
	// (an unset or invalid regex must not crash lookups).
	aliasRe *regexp.Regexp
}

// MatchesAlias reports whether name matches this bundle's alias pattern.
func (b *Bundle) MatchesAlias(name string) bool {
	return b.aliasRe != nil && b.aliasRe.MatchString(name)
}

// Catalog is the read-only rule catalogue consumed by detectors:
// a (library, function) lookup plus alias-pattern resolution.
type Catalog struct {
	bundles []*Bundle
	lookup  map[string]map[string]*Rule
}

// NewCatalog creates an empty catalogue.
func NewCatalog() *Catalog {
	return &Catalog{lookup: make(map[string]map[string]*Rule)}
}

// Add indexes a bundle. Rules for an already-known (library, func) pair are
// overwritten, so user bundles loaded after the builtins take precedence.
func (c *Catalog) Add(b *Bundle) {
	c.bundles = append(c.bundles, b)
	funcs, ok := c.lookup[b.Meta.Library]
	if !ok {
		funcs = make(map[string]*Rule)
		c.lookup[b.Meta.Library] = funcs
	}
	for _, r := range b.Rules {
		funcs[r.Func] = r
	}
}

// Rule returns the rule for a (library, function) pair, or nil.
func (c *Catalog) Rule(library, function string) *Rule {
	return c.lookup[library][function]
}

// ResolveAlias resolves a short alias (pd, np, ...) to its canonical library
// name via the bundles' alias patterns. Returns "" when nothing matches.
func (c *Catalog) ResolveAlias(alias string) string {
	for _, b := range c.bundles {
		if b.MatchesAlias(alias) {
			return b.Meta.Library
		}
	}
	return ""
}

// Bundles returns all loaded bundles in load order.
func (c *Catalog) Bundles() []*Bundle {
	return c.bundles
}

// BundleFor returns the bundle for a canonical library name, or nil.
func (c *Catalog) BundleFor(library string) *Bundle {
	for _, b := range c.bundles {
		if b.Meta.Library == library {
			return b
		}
	}
	return nil
}

// Libraries returns all canonical library names known to the catalogue.
func (c *Catalog) Libraries() []string {
	libs := make([]string, 0, len(c.lookup))
	for lib := range c.lookup {
		libs = append(libs, lib)
	}
	return libs
}

// Functions returns all function names the catalogue knows for a library.
func (c *Catalog) Functions(library string) []string {
	funcs := make([]string, 0, len(c.lookup[library]))
	for fn := range c.lookup[library] {
		funcs = append(funcs, fn)
	}
	return funcs
}
