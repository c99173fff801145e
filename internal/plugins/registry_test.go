package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/datamut/internal/analysis"
	"github.com/standardbeagle/datamut/internal/parser"
	"github.com/standardbeagle/datamut/internal/rules"
)

type noopDetector struct{ name string }

func (d noopDetector) Name() string { return d.name }

func (d noopDetector) Detect(*parser.ParsedFile, *analysis.Context, *analysis.Sink) {}

func TestRegisterAndBuild(t *testing.T) {
	t.Cleanup(resetForTest)

	Register("zeta", func(*rules.Catalog, analysis.Options) analysis.Detector {
		return noopDetector{name: "zeta"}
	})
	Register("alpha", func(*rules.Catalog, analysis.Options) analysis.Detector {
		return noopDetector{name: "alpha"}
	})

	assert.Equal(t, []string{"alpha", "zeta"}, Names())

	detectors := Build(nil, analysis.DefaultOptions())
	require.Len(t, detectors, 2)
	assert.Equal(t, "alpha", detectors[0].Name(), "build order follows sorted names")
	assert.Equal(t, "zeta", detectors[1].Name())
}

func TestRegisterDuplicatePanics(t *testing.T) {
	t.Cleanup(resetForTest)

	Register("dup", func(*rules.Catalog, analysis.Options) analysis.Detector {
		return noopDetector{name: "dup"}
	})
	assert.Panics(t, func() {
		Register("dup", func(*rules.Catalog, analysis.Options) analysis.Detector {
			return noopDetector{name: "dup"}
		})
	})
}

func resetForTest() {
	mu.Lock()
	defer mu.Unlock()
	factories = make(map[string]Factory)
}
