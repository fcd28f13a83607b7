package sarif

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/scanio-correlator/pkg/shared/files"
)

// Report wraps a decoded SARIF report together with the folder its URIs are relative to.
type Report struct {
	*sarif.Report
	logger       hclog.Logger
	sourceFolder string
}

type ToolMetadata struct {
	Name    string
	Version *string
}

func readSarifReport(inputPath string) (*sarif.Report, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read sarif report: %w", err)
	}

	var sarifReport sarif.Report
	if err := json.Unmarshal(data, &sarifReport); err != nil {
		return nil, fmt.Errorf("failed to decode sarif report %q: %w", inputPath, err)
	}
	return &sarifReport, nil
}

// remove all results with Suppressions property
func removeSuppressedResults(report *sarif.Report) {
	for _, run := range report.Runs {
		var filteredResults []*sarif.Result
		for _, result := range run.Results {
			if len(result.Suppressions) == 0 {
				filteredResults = append(filteredResults, result)
			}
		}
		run.Results = filteredResults
	}
}

// ReadReport loads a SARIF file. sourceFolder is the folder the scanner was run against;
// it may start with "~/".
func ReadReport(inputPath string, logger hclog.Logger, sourceFolder string, noSuppressions bool) (*Report, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	sarifReport, err := readSarifReport(inputPath)
	if err != nil {
		return nil, err
	}

	if noSuppressions {
		removeSuppressedResults(sarifReport)
	}

	var absPath string
	if sourceFolder != "" {
		expandedSourceFolder, err := files.ExpandPath(sourceFolder)
		if err != nil {
			return nil, fmt.Errorf("failed to expand source folder: %w", err)
		}
		absPath, err = filepath.Abs(expandedSourceFolder)
		if err != nil {
			return nil, err
		}
	}

	return &Report{
		Report:       sarifReport,
		logger:       logger,
		sourceFolder: absPath,
	}, nil
}

// ExtractToolNameAndVersion function extracts tool name and version from a sarif report
func (r Report) ExtractToolNameAndVersion() (*ToolMetadata, error) {
	if r.Report == nil || len(r.Runs) == 0 || r.Runs[0].Tool.Driver == nil {
		return nil, fmt.Errorf("sarif report has no tool driver")
	}
	driver := r.Runs[0].Tool.Driver
	return &ToolMetadata{
		Name:    driver.Name,
		Version: driver.SemanticVersion,
	}, nil
}

func rulesByID(run *sarif.Run) map[string]*sarif.ReportingDescriptor {
	rulesMap := map[string]*sarif.ReportingDescriptor{}
	if run == nil || run.Tool.Driver == nil {
		return rulesMap
	}
	for _, rule := range run.Tool.Driver.Rules {
		if rule != nil {
			rulesMap[rule.ID] = rule
		}
	}
	return rulesMap
}

// EnrichResultsLevelProperty function to enrich results properties with level taken from corersponding rules propertiues "problem.severity" field
func (r Report) EnrichResultsLevelProperty() {
	for _, run := range r.Runs {
		rulesMap := rulesByID(run)
		for _, result := range run.Results {
			if result.Properties == nil {
				result.Properties = make(map[string]interface{})
			}
			if result.Properties["Level"] != nil {
				continue
			}
			var rule *sarif.ReportingDescriptor
			if result.RuleID != nil {
				rule = rulesMap[*result.RuleID]
			}
			switch {
			case result.Level != nil:
				// used by snyk
				result.Properties["Level"] = *result.Level
			case rule != nil && rule.Properties["problem.severity"] != nil:
				// used by codeql
				result.Properties["Level"] = rule.Properties["problem.severity"]
			case rule != nil && rule.DefaultConfiguration != nil:
				result.Properties["Level"] = rule.DefaultConfiguration.Level
			default:
				result.Properties["Level"] = "unknown"
			}
		}
	}
}

// SortResultsByLevel orders results of every run as error, warning, note, none, unknown.
// EnrichResultsLevelProperty must run first.
func (r Report) SortResultsByLevel() {
	levelOrder := map[string]int{
		"error":   0,
		"warning": 1,
		"note":    2,
		"none":    3,
	}
	rank := func(res *sarif.Result) int {
		if order, ok := levelOrder[getStringProp(res.Properties, "Level")]; ok {
			return order
		}
		return len(levelOrder)
	}

	for _, run := range r.Runs {
		sort.SliceStable(run.Results, func(i, j int) bool {
			return rank(run.Results[i]) < rank(run.Results[j])
		})
	}
}

// RemoveDataflowDuplicates drops thread flows that repeat an earlier thread flow of the same
// result, then drops code flows left empty.
func (r Report) RemoveDataflowDuplicates() {
	for _, run := range r.Runs {
		for _, result := range run.Results {
			seen := map[string]bool{}
			var nonEmptyCodeFlows []*sarif.CodeFlow
			for _, codeFlow := range result.CodeFlows {
				var uniqueThreadFlows []*sarif.ThreadFlow
				for _, threadFlow := range codeFlow.ThreadFlows {
					fingerprint := calculateThreadFlowFingerprint(threadFlow)
					if !seen[fingerprint] {
						seen[fingerprint] = true
						uniqueThreadFlows = append(uniqueThreadFlows, threadFlow)
					}
				}
				codeFlow.ThreadFlows = uniqueThreadFlows
				if len(uniqueThreadFlows) > 0 {
					nonEmptyCodeFlows = append(nonEmptyCodeFlows, codeFlow)
				}
			}
			result.CodeFlows = nonEmptyCodeFlows
		}
	}
}

func calculateThreadFlowFingerprint(threadFlow *sarif.ThreadFlow) string {
	var fingerprint string
	for _, tfl := range threadFlow.Locations {
		if tfl == nil {
			continue
		}
		uri := ""
		if loc := tfl.Location; loc != nil && loc.PhysicalLocation != nil && loc.PhysicalLocation.ArtifactLocation != nil && loc.PhysicalLocation.ArtifactLocation.URI != nil {
			uri = *loc.PhysicalLocation.ArtifactLocation.URI
		}
		start, end := ExtractRegionFromLocation(tfl.Location)
		fingerprint += fmt.Sprintf("|%s:%d:%d;", uri, start, end)
	}
	return calculateMD5Hash(fingerprint)
}

// readLine returns the given 1-based line of a file.
func readLine(path string, line int) (string, error) {
	if path == "" || line <= 0 {
		return "", fmt.Errorf("invalid location %q:%d", path, line)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for current := 1; scanner.Scan(); current++ {
		if current == line {
			return scanner.Text(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading file: %w", err)
	}
	return "", fmt.Errorf("line %d not found in file %q", line, path)
}

func (r Report) log() hclog.Logger {
	if r.logger == nil {
		return hclog.NewNullLogger()
	}
	return r.logger
}
