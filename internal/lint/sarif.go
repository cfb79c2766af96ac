package lint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/lucasew/markdown-input/internal/version"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
)

// SarifReport is the subset of SARIF 2.1.0 this package emits.
type SarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SarifRun `json:"runs"`
}

type SarifRun struct {
	Tool struct {
		Driver SarifDriver `json:"driver"`
	} `json:"tool"`
	Results []SarifResult `json:"results"`
}

type SarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []SarifRule `json:"rules,omitempty"`
}

type SarifRule struct {
	ID string `json:"id"`
}

type SarifResult struct {
	RuleID  string `json:"ruleId"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
	Level               string            `json:"level"` // "warning", "error", "note", "none"
	Locations           []SarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type SarifLocation struct {
	PhysicalLocation struct {
		ArtifactLocation struct {
			URI string `json:"uri"`
		} `json:"artifactLocation"`
		Region SarifRegion `json:"region"`
	} `json:"physicalLocation"`
}

type SarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

// SARIF converts processed files into a single-run SARIF log.
func (p Preset) SARIF(files ...*File) *SarifReport {
	run := SarifRun{Results: []SarifResult{}}
	run.Tool.Driver = SarifDriver{Name: Source, Version: version.Get()}
	for _, r := range p.Rules {
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, SarifRule{ID: r.ID})
	}

	for _, f := range files {
		for _, m := range f.Messages {
			res := SarifResult{RuleID: m.RuleID, Level: "warning"}
			if m.Fatal {
				res.Level = "error"
			}
			res.Message.Text = m.Reason

			var loc SarifLocation
			loc.PhysicalLocation.ArtifactLocation.URI = displayPath(f.Path)
			loc.PhysicalLocation.Region = SarifRegion{
				StartLine: m.Line, StartColumn: m.Column,
				EndLine: m.EndLine, EndColumn: m.EndColumn,
			}
			res.Locations = []SarifLocation{loc}

			// Rule + message + tool identifies the issue across runs.
			hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", m.RuleID, m.Reason, Source)))
			res.PartialFingerprints = map[string]string{"issue/v1": hex.EncodeToString(hash[:])}

			run.Results = append(run.Results, res)
		}
	}

	return &SarifReport{Schema: sarifSchema, Version: sarifVersion, Runs: []SarifRun{run}}
}

// MarshalSARIF encodes the SARIF log for files.
func (p Preset) MarshalSARIF(files ...*File) ([]byte, error) {
	data, err := json.MarshalIndent(p.SARIF(files...), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sarif: %w", err)
	}
	return data, nil
}
