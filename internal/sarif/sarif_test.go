package sarif

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gosarif "github.com/owenrumney/go-sarif/v2/sarif"
)

const ownerControllerSource = `package org.petclinic.web;

class OwnerController {
    public String processFindForm(Owner owner, BindingResult result, Model model) {
        Collection<Owner> results = this.clinicService.findOwnerByLastName(owner.getLastName());
    }
}
`

const semgrepReport = `{
  "version": "2.1.0",
  "runs": [{
    "tool": {"driver": {"name": "Semgrep", "rules": [
      {"id": "java.sqli", "properties": {"tags": ["CWE-89: Improper Neutralization", "OWASP-A03:2021 - Injection"]}},
      {"id": "java.xss", "defaultConfiguration": {"level": "warning"}, "properties": {"tags": ["external/cwe/cwe-079"]}}
    ]}},
    "results": [
      {
        "ruleId": "java.sqli",
        "level": "error",
        "message": {"text": "sql injection"},
        "locations": [{"physicalLocation": {"artifactLocation": {"uri": "src/OwnerController.java"}, "region": {"startLine": 5}}}],
        "codeFlows": [{"threadFlows": [
          {"locations": [
            {"location": {"physicalLocation": {"artifactLocation": {"uri": "src/OwnerController.java"}, "region": {"startLine": 4}}}},
            {"location": {"physicalLocation": {"artifactLocation": {"uri": "src/OwnerController.java"}, "region": {"startLine": 5, "snippet": {"text": "findOwnerByLastName(owner.getLastName())"}}}}}
          ]},
          {"locations": [
            {"location": {"physicalLocation": {"artifactLocation": {"uri": "src/OwnerController.java"}, "region": {"startLine": 4}}}},
            {"location": {"physicalLocation": {"artifactLocation": {"uri": "src/OwnerController.java"}, "region": {"startLine": 5, "snippet": {"text": "findOwnerByLastName(owner.getLastName())"}}}}}
          ]}
        ]}]
      },
      {
        "ruleId": "java.xss",
        "message": {"text": "reflected xss"},
        "locations": [{"physicalLocation": {"artifactLocation": {"uri": "src/OwnerController.java"}, "region": {"startLine": 5}}}]
      },
      {
        "ruleId": "java.sqli",
        "message": {"text": "suppressed"},
        "locations": [{"physicalLocation": {"artifactLocation": {"uri": "src/OwnerController.java"}, "region": {"startLine": 4}}}],
        "suppressions": [{"kind": "inSource"}]
      },
      {
        "message": {"text": "no rule"},
        "locations": [{"physicalLocation": {"artifactLocation": {"uri": "src/OwnerController.java"}, "region": {"startLine": 4}}}]
      }
    ]
  }]
}`

func writeSemgrepFixture(t *testing.T) (string, string) {
	t.Helper()

	sourceFolder := filepath.Join(t.TempDir(), "petclinic")
	if err := os.MkdirAll(filepath.Join(sourceFolder, "src"), 0755); err != nil {
		t.Fatalf("failed to create source folder: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sourceFolder, "src", "OwnerController.java"), []byte(ownerControllerSource), 0644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}
	reportPath := filepath.Join(sourceFolder, "semgrep.sarif")
	if err := os.WriteFile(reportPath, []byte(semgrepReport), 0644); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}
	return reportPath, sourceFolder
}

func TestReadReport(t *testing.T) {
	reportPath, sourceFolder := writeSemgrepFixture(t)

	report, err := ReadReport(reportPath, nil, sourceFolder, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(report.Runs[0].Results); got != 3 {
		t.Fatalf("expected the suppressed result to be removed, got %d results", got)
	}

	tool, err := report.ExtractToolNameAndVersion()
	if err != nil || tool.Name != "Semgrep" {
		t.Fatalf("unexpected tool metadata %+v, %v", tool, err)
	}

	report, err = ReadReport(reportPath, nil, sourceFolder, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(report.Runs[0].Results); got != 4 {
		t.Fatalf("expected all results to be kept, got %d", got)
	}

	if _, err := ReadReport(filepath.Join(sourceFolder, "missing.sarif"), nil, sourceFolder, false); err == nil {
		t.Fatalf("expected an error for a missing report")
	}

	broken := filepath.Join(sourceFolder, "broken.sarif")
	if err := os.WriteFile(broken, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadReport(broken, nil, sourceFolder, false); err == nil {
		t.Fatalf("expected an error for a malformed report")
	}

	if _, err := (Report{Report: &gosarif.Report{}}).ExtractToolNameAndVersion(); err == nil {
		t.Fatalf("expected an error for a report without runs")
	}
}

func TestStaticFindings(t *testing.T) {
	reportPath, sourceFolder := writeSemgrepFixture(t)

	report, err := ReadReport(reportPath, nil, sourceFolder, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report.RemoveDataflowDuplicates()
	if got := len(report.Runs[0].Results[0].CodeFlows[0].ThreadFlows); got != 1 {
		t.Fatalf("expected the duplicate thread flow to be removed, got %d", got)
	}

	findings := report.StaticFindings(nil)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}

	sqli := findings[0]
	if sqli.Scanner != "Semgrep" || sqli.RuleID != "java.sqli" || sqli.Severity != "High" || sqli.CWE != "CWE-89" {
		t.Fatalf("unexpected metadata %+v", sqli)
	}
	if sqli.File != "src/OwnerController.java" || sqli.Line != 5 || !sqli.IsStatic() {
		t.Fatalf("unexpected location %s:%d", sqli.File, sqli.Line)
	}
	sinkLine := strings.Split(ownerControllerSource, "\n")[4]
	if expected := fmt.Sprintf("%x", sha256.Sum256([]byte(sinkLine))); sqli.SnippetHash != expected {
		t.Fatalf("expected snippet hash %s, got %s", expected, sqli.SnippetHash)
	}
	if len(sqli.CodePoints) != 2 {
		t.Fatalf("expected a two step trace, got %+v", sqli.CodePoints)
	}
	if sqli.CodePoints[0].Line != 4 || sqli.CodePoints[0].Text != "public String processFindForm(Owner owner, BindingResult result, Model model) {" {
		t.Fatalf("expected the first step to be read from disk, got %v", sqli.CodePoints[0])
	}
	if sqli.CodePoints[1].Text != "findOwnerByLastName(owner.getLastName())" {
		t.Fatalf("expected the embedded snippet to be used, got %v", sqli.CodePoints[1])
	}

	xss := findings[1]
	if xss.Severity != "Medium" || xss.CWE != "CWE-79" {
		t.Fatalf("unexpected metadata %+v", xss)
	}
	if len(xss.CodePoints) != 1 || xss.CodePoints[0].Line != 5 || !strings.HasPrefix(xss.CodePoints[0].Text, "Collection<Owner> results") {
		t.Fatalf("expected a single step trace at the result location, got %+v", xss.CodePoints)
	}
}

func TestEnrichResultsLevelProperty(t *testing.T) {
	snyk, codeql, fallback, missing, preset := "SNYK-1", "CODEQL-1", "DEFAULT-1", "MISSING-1", "PRESET-1"
	note := "note"

	results := map[string]*gosarif.Result{
		snyk:     {RuleID: &snyk, Level: &note},
		codeql:   {RuleID: &codeql},
		fallback: {RuleID: &fallback},
		missing:  {RuleID: &missing},
		preset:   {RuleID: &preset, PropertyBag: gosarif.PropertyBag{Properties: map[string]interface{}{"Level": "error"}}},
	}
	defaultRule := gosarif.NewRule(fallback)
	defaultRule.DefaultConfiguration = gosarif.NewReportingConfiguration().WithLevel("error")

	report := Report{
		Report: &gosarif.Report{
			Version: string(gosarif.Version210),
			Runs: []*gosarif.Run{
				{
					Tool: gosarif.Tool{Driver: &gosarif.ToolComponent{
						Name: "CodeQL",
						Rules: []*gosarif.ReportingDescriptor{
							gosarif.NewRule(codeql).WithProperties(gosarif.Properties{"problem.severity": "warning"}),
						},
					}},
					Results: []*gosarif.Result{results[codeql], results[missing]},
				},
				{
					Tool: gosarif.Tool{Driver: &gosarif.ToolComponent{
						Name:  "Snyk",
						Rules: []*gosarif.ReportingDescriptor{gosarif.NewRule(snyk), defaultRule},
					}},
					Results: []*gosarif.Result{results[snyk], results[fallback], results[preset]},
				},
			},
		},
	}

	report.EnrichResultsLevelProperty()

	expected := map[string]string{
		snyk:     "note",
		codeql:   "warning",
		fallback: "error",
		missing:  "unknown",
		preset:   "error",
	}
	for id, level := range expected {
		if got, _ := results[id].Properties["Level"].(string); got != level {
			t.Errorf("%s: expected level %q, got %q", id, level, got)
		}
	}

	report.SortResultsByLevel()
	if first := *report.Runs[0].Results[0].RuleID; first != codeql {
		t.Errorf("expected the warning to sort before the unknown level, got %s first", first)
	}
	if order := []string{*report.Runs[1].Results[0].RuleID, *report.Runs[1].Results[1].RuleID, *report.Runs[1].Results[2].RuleID}; order[2] != snyk {
		t.Errorf("expected the note to sort last, got %v", order)
	}
}

func TestCWEFromTags(t *testing.T) {
	tests := []struct {
		tags     []string
		expected string
	}{
		{[]string{"security", "CWE-89: Improper Neutralization"}, "CWE-89"},
		{[]string{"external/cwe/cwe-079"}, "CWE-79"},
		{[]string{"cwe:22"}, "CWE-22"},
		{[]string{"OWASP-A03:2021 - Injection"}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := cweFromTags(tt.tags); got != tt.expected {
			t.Errorf("cweFromTags(%v) = %q, expected %q", tt.tags, got, tt.expected)
		}
	}
}

func TestDisplaySeverity(t *testing.T) {
	tests := map[string]string{
		"error":    "High",
		" WARNING": "Medium",
		"note":     "Low",
		"none":     "Info",
		"critical": "Critical",
		"":         "",
	}
	for level, expected := range tests {
		if got := displaySeverity(level); got != expected {
			t.Errorf("displaySeverity(%q) = %q, expected %q", level, got, expected)
		}
	}
}
