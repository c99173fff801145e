package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	dmerrors "github.com/standardbeagle/datamut/internal/errors"
)

//go:embed builtin/*.yml
var builtinFS embed.FS

// LoadBuiltin loads the embedded rule bundles (pandas, numpy, sql, hardcoded)
// into a fresh catalogue.
func LoadBuiltin() (*Catalog, error) {
	c := NewCatalog()
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, dmerrors.NewCatalogError("builtin", "", err)
	}
	// Deterministic load order so overrides behave predictably.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := builtinFS.ReadFile("builtin/" + name)
		if err != nil {
			return nil, dmerrors.NewCatalogError(name, "", err)
		}
		b, err := parseBundle(data)
		if err != nil {
			return nil, dmerrors.NewCatalogError(name, "", err)
		}
		c.Add(b)
	}
	return c, nil
}

// LoadDir merges every *.yml / *.yaml bundle in dir into the catalogue.
// Bundles loaded here override builtin rules with the same (library, func).
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return dmerrors.NewCatalogError(dir, "", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		if err := c.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile loads a single YAML bundle file into the catalogue.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return dmerrors.NewCatalogError(path, "", err)
	}
	b, err := parseBundle(data)
	if err != nil {
		return dmerrors.NewCatalogError(path, "", err)
	}
	c.Add(b)
	return nil
}

// parseBundle decodes and validates a YAML rule bundle. An invalid alias
// regex is not fatal: the bundle loads with a nil pattern that never matches.
func parseBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("invalid bundle YAML: %w", err)
	}
	if b.Meta.Library == "" {
		return nil, fmt.Errorf("bundle missing meta.library")
	}
	if len(b.Rules) == 0 {
		return nil, fmt.Errorf("bundle for %s has no rules", b.Meta.Library)
	}
	for _, r := range b.Rules {
		if r.Func == "" {
			return nil, fmt.Errorf("bundle for %s has a rule without func", b.Meta.Library)
		}
		if !r.DefaultSeverity.IsValid() {
			return nil, fmt.Errorf("rule %s.%s has invalid severity %q",
				b.Meta.Library, r.Func, r.DefaultSeverity)
		}
		if r.ExtraChecks != nil && r.ExtraChecks.SetSeverity != "" && !r.ExtraChecks.SetSeverity.IsValid() {
			return nil, fmt.Errorf("rule %s.%s has invalid escalated severity %q",
				b.Meta.Library, r.Func, r.ExtraChecks.SetSeverity)
		}
	}
	if b.Meta.AliasRegex != "" {
		if re, err := regexp.Compile(b.Meta.AliasRegex); err == nil {
			b.aliasRe = re
		}
	}
	return &b, nil
}
