package analysis

import (
	dmerrors "github.com/standardbeagle/datamut/internal/errors"
	"github.com/standardbeagle/datamut/internal/parser"
	"github.com/standardbeagle/datamut/internal/rules"
	"github.com/standardbeagle/datamut/internal/types"
)

// Orchestrator owns the detector set for a scan and drives all of them over
// each parsed file. Detectors share nothing but the read-only context, so
// their relative order only affects concatenation order of the findings.
type Orchestrator struct {
	catalog   *rules.Catalog
	opts      Options
	detectors []Detector
}

// NewOrchestrator builds the builtin detector set in fixed order, followed
// by any extra detectors from plugins.
func NewOrchestrator(catalog *rules.Catalog, opts Options, extra ...Detector) *Orchestrator {
	detectors := []Detector{
		NewMutationDetector(catalog),
		NewChainDetector(catalog, opts.Chain),
		NewSQLDetector(catalog),
		NewHardcodedDetector(catalog, opts),
	}
	detectors = append(detectors, extra...)
	return &Orchestrator{catalog: catalog, opts: opts, detectors: detectors}
}

// Detectors returns the detector set in execution order.
func (o *Orchestrator) Detectors() []Detector {
	return o.detectors
}

// Analyze runs every detector over one parsed file and concatenates their
// findings. A detector panic aborts only that detector; its findings emitted
// before the panic are kept and the failure is reported alongside the rest.
func (o *Orchestrator) Analyze(file *parser.ParsedFile) ([]types.Finding, []error) {
	ctx := CollectContext(file)

	var findings []types.Finding
	var errs []error
	for _, det := range o.detectors {
		partial, err := runDetector(det, file, ctx)
		findings = append(findings, partial...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return findings, errs
}

// runDetector is the failure boundary around one detector's traversal.
func runDetector(det Detector, file *parser.ParsedFile, ctx *Context) (findings []types.Finding, err error) {
	sink := &Sink{}
	defer func() {
		findings = sink.Findings()
		if recovered := recover(); recovered != nil {
			err = dmerrors.NewDetectorError(det.Name(), file.Path, recovered)
		}
	}()
	det.Detect(file, ctx, sink)
	return sink.Findings(), nil
}
