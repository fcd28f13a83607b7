package endpoint

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// CodePoint is one link of a data-flow trace: a source line reported by a static analyzer.
type CodePoint struct {
	File string `yaml:"file" json:"file"`
	Line int    `yaml:"line" json:"line"`
	Text string `yaml:"text" json:"text"`
}

func (c *CodePoint) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s:%d %s", c.File, c.Line, c.Text)
}

// CompactTrace drops nil entries of a trace, keeping the order of the rest.
func CompactTrace(trace []*CodePoint) []*CodePoint {
	var out []*CodePoint
	for _, point := range trace {
		if point != nil {
			out = append(out, point)
		}
	}
	return out
}

type traceFile struct {
	CodePoints []*CodePoint `yaml:"code_points"`
}

// LoadTrace reads a data-flow trace from a YAML or JSON file holding either a list of
// code points or a document with a "code_points" list.
func LoadTrace(path string) ([]*CodePoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace file %q: %w", path, err)
	}

	var trace []*CodePoint
	if err := yaml.Unmarshal(data, &trace); err != nil {
		var doc traceFile
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode trace file %q: %w", path, err)
		}
		trace = doc.CodePoints
	}
	return CompactTrace(trace), nil
}
