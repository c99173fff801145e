// Package plugins lets external builds register additional detectors that
// run after the builtin set. Registration happens in init functions of
// underscore-imported packages.
package plugins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/standardbeagle/datamut/internal/analysis"
	"github.com/standardbeagle/datamut/internal/rules"
)

// Factory builds one detector instance for a scan.
type Factory func(catalog *rules.Catalog, opts analysis.Options) analysis.Detector

var (
	mu        sync.Mutex
	factories = make(map[string]Factory)
)

// Register adds a detector factory under a unique name. Duplicate names are
// a programming error and panic at init time.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("plugins: detector %q registered twice", name))
	}
	factories[name] = factory
}

// Names lists registered detectors in sorted order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build instantiates every registered detector in name order, so plugin
// findings concatenate deterministically.
func Build(catalog *rules.Catalog, opts analysis.Options) []analysis.Detector {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)

	detectors := make([]analysis.Detector, 0, len(names))
	for _, name := range names {
		detectors = append(detectors, factories[name](catalog, opts))
	}
	return detectors
}
