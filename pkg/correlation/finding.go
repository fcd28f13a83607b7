package correlation

import (
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v2"

	"github.com/scan-io-git/scanio-correlator/pkg/endpoint"
)

// Kind tells how a finding was produced.
type Kind string

const (
	KindStatic  Kind = "static"
	KindDynamic Kind = "dynamic"
)

// Finding describes the minimal metadata required to correlate a vulnerability.
// Static findings carry a file location and usually a data-flow trace, dynamic findings
// carry the URL, method and parameter observed by the scanner.
type Finding struct {
	ID          string                `yaml:"id" json:"id"`
	Scanner     string                `yaml:"scanner" json:"scanner,omitempty"`
	RuleID      string                `yaml:"rule_id" json:"rule_id,omitempty"`
	Severity    string                `yaml:"severity" json:"severity,omitempty"`
	CWE         string                `yaml:"cwe" json:"cwe,omitempty"`
	Kind        Kind                  `yaml:"kind" json:"kind"`
	URL         string                `yaml:"url" json:"url,omitempty"`
	Method      string                `yaml:"method" json:"method,omitempty"`
	Parameter   string                `yaml:"parameter" json:"parameter,omitempty"`
	File        string                `yaml:"file" json:"file,omitempty"`
	Line        int                   `yaml:"line" json:"line,omitempty"`
	SnippetHash string                `yaml:"snippet_hash" json:"snippet_hash,omitempty"`
	CodePoints  []*endpoint.CodePoint `yaml:"code_points" json:"code_points,omitempty"`
}

// IsStatic reports whether the finding should be located by file rather than by URL.
func (f Finding) IsStatic() bool {
	switch f.Kind {
	case KindStatic:
		return true
	case KindDynamic:
		return false
	default:
		return f.File != "" || len(endpoint.CompactTrace(f.CodePoints)) > 0
	}
}

type findingsFile struct {
	Findings []Finding `yaml:"findings"`
}

// LoadFindings reads findings from a YAML or JSON file holding either a list of findings
// or a document with a "findings" list. Findings without a kind get one inferred from
// their fields.
func LoadFindings(path string) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read findings file %q: %w", path, err)
	}

	var findings []Finding
	if err := yaml.Unmarshal(data, &findings); err != nil {
		var doc findingsFile
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode findings file %q: %w", path, err)
		}
		findings = doc.Findings
	}

	for i := range findings {
		f := &findings[i]
		f.Kind = Kind(strings.ToLower(strings.TrimSpace(string(f.Kind))))
		if f.Kind == "" {
			if f.IsStatic() {
				f.Kind = KindStatic
			} else {
				f.Kind = KindDynamic
			}
		}
		if f.Kind != KindStatic && f.Kind != KindDynamic {
			return nil, fmt.Errorf("finding %d in %q has unknown kind %q", i, path, f.Kind)
		}
	}
	return findings, nil
}
