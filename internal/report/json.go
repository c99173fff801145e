package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/standardbeagle/datamut/internal/types"
	"github.com/standardbeagle/datamut/internal/version"
)

// JSONEmitter writes the report for programmatic consumption.
type JSONEmitter struct{}

type jsonReport struct {
	Metadata jsonMetadata    `json:"metadata"`
	Findings []types.Finding `json:"findings"`
}

type jsonMetadata struct {
	Tool        string `json:"tool"`
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at"`
	Summary     Stats  `json:"summary"`
}

func (e *JSONEmitter) Emit(w io.Writer, findings []types.Finding) error {
	if findings == nil {
		findings = []types.Finding{}
	}
	report := jsonReport{
		Metadata: jsonMetadata{
			Tool:        "datamut",
			Version:     version.Version,
			GeneratedAt: time.Now().Format(time.RFC3339),
			Summary:     Summarize(findings),
		},
		Findings: findings,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
