package report

import (
	"fmt"
	"io"

	"github.com/standardbeagle/datamut/internal/types"
)

// WriteSummary prints the terminal summary shown after every scan.
func WriteSummary(w io.Writer, findings []types.Finding, filesScanned, filesFailed int) {
	stats := Summarize(findings)

	fmt.Fprintf(w, "Scanned %d files", filesScanned)
	if filesFailed > 0 {
		fmt.Fprintf(w, " (%d failed)", filesFailed)
	}
	fmt.Fprintf(w, ", %d findings\n", stats.TotalFindings)
	if stats.TotalFindings == 0 {
		return
	}

	for _, severity := range severityOrder {
		if count := stats.BySeverity[string(severity)]; count > 0 {
			fmt.Fprintf(w, "  %-8s %d\n", severity, count)
		}
	}

	fmt.Fprintln(w)
	for _, f := range findings {
		fmt.Fprintln(w, f.String())
	}
}
