package endpoint

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Declaration describes a route as reported by the external source scanner.
type Declaration struct {
	Framework  string   `yaml:"framework" json:"framework,omitempty"`
	File       string   `yaml:"file" json:"file"`
	URL        string   `yaml:"url" json:"url,omitempty"`
	Methods    []string `yaml:"methods" json:"methods,omitempty"`
	Parameters []string `yaml:"parameters" json:"parameters,omitempty"`
	StartLine  int      `yaml:"start_line" json:"start_line"`
	EndLine    int      `yaml:"end_line" json:"end_line"`
}

type declarationsFile struct {
	Endpoints []Declaration `yaml:"endpoints"`
}

// LoadDeclarations reads a YAML (or JSON) file holding either a list of declarations
// or a document with an "endpoints" list.
func LoadDeclarations(path string) ([]Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read endpoints file %q: %w", path, err)
	}
	return ParseDeclarations(data)
}

// ParseDeclarations decodes declarations from YAML or JSON content.
func ParseDeclarations(data []byte) ([]Declaration, error) {
	var list []Declaration
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc declarationsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode endpoint declarations: %w", err)
	}
	return doc.Endpoints, nil
}
