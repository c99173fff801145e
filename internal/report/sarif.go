package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/standardbeagle/datamut/internal/types"
	"github.com/standardbeagle/datamut/internal/version"
)

const sarifSchema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

// SARIFEmitter writes SARIF 2.1.0 for code-scanning integrations.
type SARIFEmitter struct{}

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Results     []sarifResult     `json:"results"`
	Invocations []sarifInvocation `json:"invocations"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	ShortDescription     sarifText      `json:"shortDescription"`
	FullDescription      sarifText      `json:"fullDescription"`
	DefaultConfiguration sarifLevel     `json:"defaultConfiguration"`
	Properties           map[string]any `json:"properties"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifLevel struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID     string          `json:"ruleId"`
	Message    sarifMessage    `json:"message"`
	Level      string          `json:"level"`
	Locations  []sarifLocation `json:"locations"`
	Properties map[string]any  `json:"properties"`
}

type sarifMessage struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int       `json:"startLine"`
	StartColumn int       `json:"startColumn"`
	Snippet     sarifText `json:"snippet"`
}

type sarifInvocation struct {
	ExecutionSuccessful bool   `json:"executionSuccessful"`
	EndTimeUTC          string `json:"endTimeUtc"`
}

func (e *SARIFEmitter) Emit(w io.Writer, findings []types.Finding) error {
	report := sarifReport{
		Schema:  sarifSchema,
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:           "datamut",
					Version:        version.Version,
					InformationURI: "https://github.com/standardbeagle/datamut",
					Rules:          sarifRules(findings),
				},
			},
			Results: sarifResults(findings),
			Invocations: []sarifInvocation{{
				ExecutionSuccessful: true,
				EndTimeUTC:          time.Now().UTC().Format(time.RFC3339),
			}},
		}},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// sarifRules builds one rule definition per distinct rule ID, in order of
// first appearance.
func sarifRules(findings []types.Finding) []sarifRule {
	seen := make(map[string]struct{})
	rules := []sarifRule{}
	for _, f := range findings {
		id := f.EffectiveRuleID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		full := f.Notes
		if full == "" {
			full = fmt.Sprintf("Detects %s operations", f.MutationType)
		}
		rules = append(rules, sarifRule{
			ID:               id,
			Name:             f.Library + "." + f.FunctionName,
			ShortDescription: sarifText{Text: f.MutationType},
			FullDescription:  sarifText{Text: full},
			DefaultConfiguration: sarifLevel{
				Level: f.Severity.SARIFLevel(),
			},
			Properties: map[string]any{
				"category": "data-mutation",
				"library":  f.Library,
			},
		})
	}
	return rules
}

func sarifResults(findings []types.Finding) []sarifResult {
	results := []sarifResult{}
	for _, f := range findings {
		results = append(results, sarifResult{
			RuleID: f.EffectiveRuleID(),
			Message: sarifMessage{
				Text:     fmt.Sprintf("%s: %s", f.MutationType, f.FunctionName),
				Markdown: fmt.Sprintf("**%s**: `%s`\n\n%s", f.MutationType, f.FunctionName, f.Notes),
			},
			Level: f.Severity.SARIFLevel(),
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: f.FilePath},
					Region: sarifRegion{
						StartLine: f.Line,
						// SARIF uses 1-based columns.
						StartColumn: f.Column + 1,
						Snippet:     sarifText{Text: f.CodeSnippet},
					},
				},
			}},
			Properties: map[string]any{
				"library":      f.Library,
				"mutationType": f.MutationType,
				"severity":     string(f.Severity),
				"extraContext": f.ExtraContext,
			},
		})
	}
	return results
}
