package report

import (
	_ "embed"
	"html/template"
	"io"
	"time"

	"github.com/standardbeagle/datamut/internal/types"
	"github.com/standardbeagle/datamut/internal/version"
)

//go:embed templates/report.html.tmpl
var reportTemplate string

// HTMLEmitter renders a standalone Bootstrap report page.
type HTMLEmitter struct{}

type htmlContext struct {
	Findings    []types.Finding
	Summary     Stats
	Severities  []types.Severity
	Libraries   []string
	GeneratedAt string
	Version     string
}

var htmlFuncs = template.FuncMap{
	"colorClass": func(s types.Severity) string { return s.ColorClass() },
}

func (e *HTMLEmitter) Emit(w io.Writer, findings []types.Finding) error {
	tmpl, err := template.New("report").Funcs(htmlFuncs).Parse(reportTemplate)
	if err != nil {
		return err
	}
	summary := Summarize(findings)
	return tmpl.Execute(w, htmlContext{
		Findings:    findings,
		Summary:     summary,
		Severities:  severityOrder,
		Libraries:   sortedKeys(summary.ByLibrary),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
	})
}
