// Package scanner drives the per-file analysis pipeline: file discovery,
// parsing, detector orchestration and parallel fan-out across files.
package scanner

import (
	"context"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/datamut/internal/analysis"
	"github.com/standardbeagle/datamut/internal/config"
	dmerrors "github.com/standardbeagle/datamut/internal/errors"
	"github.com/standardbeagle/datamut/internal/parser"
	"github.com/standardbeagle/datamut/internal/rules"
	"github.com/standardbeagle/datamut/internal/types"
)

// FileResult is the outcome of analyzing one file. A parse failure leaves
// Findings empty and sets Err; detector failures land in DetectorErrs with
// partial findings kept.
type FileResult struct {
	Path         string
	ContentHash  uint64
	Findings     []types.Finding
	Err          error
	DetectorErrs []error
}

// Result aggregates a whole scan. Findings preserve input file order, then
// detector order within a file.
type Result struct {
	Findings     []types.Finding
	FileResults  []FileResult
	FilesScanned int
	FilesFailed  int
}

// MaxSeverity returns the highest severity across all findings.
func (r *Result) MaxSeverity() types.Severity {
	return types.MaxSeverity(r.Findings)
}

// Scanner analyzes Python files against a rule catalogue.
type Scanner struct {
	catalog      *rules.Catalog
	cfg          *config.Config
	orchestrator *analysis.Orchestrator
}

// New creates a scanner. Extra detectors (plugins) run after the builtins.
func New(catalog *rules.Catalog, cfg *config.Config, extra ...analysis.Detector) *Scanner {
	return &Scanner{
		catalog:      catalog,
		cfg:          cfg,
		orchestrator: analysis.NewOrchestrator(catalog, cfg.AnalysisOptions(), extra...),
	}
}

// ScanRoot discovers files under root per the configured globs and scans
// them in parallel.
func (s *Scanner) ScanRoot(ctx context.Context, root string) (*Result, error) {
	paths, err := CollectFiles(root, s.cfg.Scan.Include, s.cfg.Scan.Exclude)
	if err != nil {
		return nil, err
	}
	return s.ScanFiles(ctx, paths)
}

// ScanFiles scans the given files, fanned out across the configured worker
// count. Results keep the order of the input paths regardless of which
// worker finishes first.
func (s *Scanner) ScanFiles(ctx context.Context, paths []string) (*Result, error) {
	results := make([]FileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers())
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.ScanFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{FileResults: results}
	for _, fr := range results {
		if fr.Err != nil {
			result.FilesFailed++
			continue
		}
		result.FilesScanned++
		result.Findings = append(result.Findings, fr.Findings...)
	}
	return result, nil
}

// ScanFile runs the full pipeline for one file: read, parse, analyze.
func (s *Scanner) ScanFile(path string) FileResult {
	result := FileResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		result.Err = dmerrors.NewScanError("stat", err).WithFile(path)
		return result
	}
	if max := s.cfg.Scan.MaxFileSize; max > 0 && info.Size() > max {
		result.Err = dmerrors.NewScanError("read",
			fmt.Errorf("file size %d exceeds limit %d", info.Size(), max)).WithFile(path).WithRecoverable(true)
		return result
	}

	content, err := os.ReadFile(path)
	if err != nil {
		result.Err = dmerrors.NewScanError("read", err).WithFile(path)
		return result
	}
	result.ContentHash = xxhash.Sum64(content)

	p, err := parser.Get()
	if err != nil {
		result.Err = err
		return result
	}
	defer parser.Put(p)

	parsed, err := p.Parse(path, content)
	if err != nil {
		result.Err = err
		return result
	}
	defer parsed.Close()

	result.Findings, result.DetectorErrs = s.orchestrator.Analyze(parsed)
	return result
}
