package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/datamut/internal/analysis"
	"github.com/standardbeagle/datamut/internal/config"
	"github.com/standardbeagle/datamut/internal/plugins"
	"github.com/standardbeagle/datamut/internal/report"
	"github.com/standardbeagle/datamut/internal/rules"
	"github.com/standardbeagle/datamut/internal/scanner"
	"github.com/standardbeagle/datamut/internal/types"
	"github.com/standardbeagle/datamut/internal/version"
)

func main() {
	app := &cli.App{
		Name:                   "datamut",
		Usage:                  "Static scanner for data mutation operations in Python code",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: <root>/.datamut.toml)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Directory to scan",
				Value:   ".",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include 'src/**/*.py')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/migrations/**')",
			},
			&cli.StringSliceFlag{
				Name:  "rules-dir",
				Usage: "Extra rule bundle directories loaded after the builtins",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel file workers (0 = number of CPUs)",
			},
		},
		Commands: []*cli.Command{
			auditCommand(),
			watchCommand(),
			rulesCommand(),
		},
		// Bare `datamut` audits the current directory.
		Action: func(c *cli.Context) error {
			return runAudit(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		if exit, ok := err.(cli.ExitCoder); ok && exit.Error() == "" {
			os.Exit(exit.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Scan for data mutations and write a report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report file path (default: stdout)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: html, json or sarif",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:  "min-severity",
				Usage: "Exit non-zero when a finding at or above this severity exists",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress the terminal summary",
			},
		},
		Action: runAudit,
	}
}

func runAudit(c *cli.Context) error {
	root, cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(c, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newScanner(catalog, cfg)
	result, err := s.ScanRoot(ctx, root)
	if err != nil {
		return err
	}

	if !c.Bool("quiet") {
		report.WriteSummary(os.Stderr, result.Findings, result.FilesScanned, result.FilesFailed)
		reportFileErrors(result)
	}

	if err := writeReport(c, result.Findings); err != nil {
		return err
	}

	minSeverity := cfg.MinSeverity()
	if flag := c.String("min-severity"); flag != "" {
		minSeverity, err = types.ParseSeverity(flag)
		if err != nil {
			return err
		}
	}
	if types.ExceedsThreshold(result.Findings, minSeverity) {
		return cli.Exit("", 1)
	}
	return nil
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Scan continuously, rescanning files as they change",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "debounce-ms",
				Usage: "Quiet period before a change batch is rescanned",
			},
		},
		Action: func(c *cli.Context) error {
			root, cfg, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}
			if ms := c.Int("debounce-ms"); ms > 0 {
				cfg.Watch.DebounceMs = ms
			}
			catalog, err := loadCatalog(c, cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := newScanner(catalog, cfg)
			debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
			w, err := scanner.NewWatcher(s, root, debounce, func(result *scanner.Result) {
				report.WriteSummary(os.Stderr, result.Findings, result.FilesScanned, result.FilesFailed)
				reportFileErrors(result)
			})
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			fmt.Fprintf(os.Stderr, "Watching %s for changes (Ctrl-C to stop)\n", root)
			<-ctx.Done()
			return nil
		},
	}
}

func rulesCommand() *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "List the loaded rule catalogue",
		Action: func(c *cli.Context) error {
			_, cfg, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(c, cfg)
			if err != nil {
				return err
			}
			for _, bundle := range catalog.Bundles() {
				fmt.Printf("%s (alias pattern %q)\n", bundle.Meta.Library, bundle.Meta.AliasRegex)
				funcs := catalog.Functions(bundle.Meta.Library)
				sort.Strings(funcs)
				for _, fn := range funcs {
					rule := catalog.Rule(bundle.Meta.Library, fn)
					fmt.Printf("  %-20s %-8s %s\n", fn, rule.DefaultSeverity, rule.Mutation)
				}
			}
			return nil
		},
	}
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides.
func loadConfigWithOverrides(c *cli.Context) (string, *config.Config, error) {
	root, err := filepath.Abs(c.String("root"))
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve root path %q: %w", c.String("root"), err)
	}

	var cfg *config.Config
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return "", nil, err
	}

	if include := c.StringSlice("include"); len(include) > 0 {
		cfg.Scan.Include = include
	}
	if exclude := c.StringSlice("exclude"); len(exclude) > 0 {
		cfg.Scan.Exclude = append(cfg.Scan.Exclude, exclude...)
	}
	if workers := c.Int("workers"); workers > 0 {
		cfg.Scan.Workers = workers
	}
	return root, cfg, nil
}

// loadCatalog builds the rule catalogue: builtins, then configured bundle
// directories, then --rules-dir flags. Later bundles override earlier ones.
func loadCatalog(c *cli.Context, cfg *config.Config) (*rules.Catalog, error) {
	catalog, err := rules.LoadBuiltin()
	if err != nil {
		return nil, err
	}
	dirs := append([]string{}, cfg.Rules.Dirs...)
	dirs = append(dirs, c.StringSlice("rules-dir")...)
	for _, dir := range dirs {
		if err := catalog.LoadDir(dir); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func newScanner(catalog *rules.Catalog, cfg *config.Config) *scanner.Scanner {
	var extra []analysis.Detector
	extra = append(extra, plugins.Build(catalog, cfg.AnalysisOptions())...)
	return scanner.New(catalog, cfg, extra...)
}

func writeReport(c *cli.Context, findings []types.Finding) error {
	format := c.String("format")
	if format == "" {
		format = "json"
	}
	emitter, err := report.New(format)
	if err != nil {
		return err
	}

	out := os.Stdout
	if path := c.String("output"); path != "" {
		f, createErr := os.Create(path)
		if createErr != nil {
			return createErr
		}
		defer f.Close()
		out = f
	}
	return emitter.Emit(out, findings)
}

func reportFileErrors(result *scanner.Result) {
	for _, fr := range result.FileResults {
		if fr.Err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", fr.Err)
		}
		for _, derr := range fr.DetectorErrs {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", derr)
		}
	}
}
