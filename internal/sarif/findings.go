package sarif

import (
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/scanio-correlator/internal/git"
	"github.com/scan-io-git/scanio-correlator/pkg/correlation"
	"github.com/scan-io-git/scanio-correlator/pkg/endpoint"
)

// StaticFindings converts every result of the report into a static finding. Paths are made
// relative to the repository root when metadata is known, otherwise to the source folder.
// The data-flow trace is taken from the first thread flow of the result; results without
// one get a single-point trace at their primary location.
func (r Report) StaticFindings(repoMetadata *git.RepositoryMetadata) []correlation.Finding {
	if r.Report == nil {
		return nil
	}
	r.EnrichResultsLevelProperty()

	var out []correlation.Finding
	for _, run := range r.Runs {
		rulesMap := rulesByID(run)
		scanner := ""
		if run.Tool.Driver != nil {
			scanner = run.Tool.Driver.Name
		}

		for _, res := range run.Results {
			if res == nil {
				continue
			}
			ruleID := ""
			if res.RuleID != nil {
				ruleID = strings.TrimSpace(*res.RuleID)
			}
			if ruleID == "" {
				r.log().Warn("skipping sarif result without rule id", "scanner", scanner)
				continue
			}

			fileURI, localPath := ExtractFileURIFromResult(res, r.sourceFolder, repoMetadata)
			line, endLine := ExtractRegionFromResult(res)

			cwe := cweFromTags(tagsOf(res.Properties))
			if rule := rulesMap[ruleID]; cwe == "" && rule != nil {
				cwe = cweFromTags(tagsOf(rule.Properties))
			}

			f := correlation.Finding{
				Scanner:     scanner,
				RuleID:      ruleID,
				Severity:    displaySeverity(getStringProp(res.Properties, "Level")),
				CWE:         cwe,
				Kind:        correlation.KindStatic,
				File:        fileURI,
				Line:        line,
				SnippetHash: computeSnippetHash(localPath, line, endLine),
				CodePoints:  r.codePoints(res, repoMetadata),
			}
			r.log().Debug("static finding extracted", "rule", ruleID, "file", fileURI, "line", line, "trace", len(f.CodePoints))
			out = append(out, f)
		}
	}
	return out
}

func (r Report) codePoints(res *sarif.Result, repoMetadata *git.RepositoryMetadata) []*endpoint.CodePoint {
	for _, codeFlow := range res.CodeFlows {
		if codeFlow == nil {
			continue
		}
		for _, threadFlow := range codeFlow.ThreadFlows {
			if threadFlow == nil || len(threadFlow.Locations) == 0 {
				continue
			}
			var points []*endpoint.CodePoint
			for _, tfl := range threadFlow.Locations {
				if tfl == nil {
					continue
				}
				if point := r.codePoint(tfl.Location, repoMetadata); point != nil {
					points = append(points, point)
				}
			}
			if len(points) > 0 {
				return points
			}
		}
	}

	if len(res.Locations) == 0 {
		return nil
	}
	if point := r.codePoint(res.Locations[0], repoMetadata); point != nil {
		return []*endpoint.CodePoint{point}
	}
	return nil
}

// codePoint prefers the snippet embedded in the report and reads the line from disk otherwise.
func (r Report) codePoint(loc *sarif.Location, repoMetadata *git.RepositoryMetadata) *endpoint.CodePoint {
	fileURI, localPath := ExtractFileURIFromLocation(loc, r.sourceFolder, repoMetadata)
	line, _ := ExtractRegionFromLocation(loc)
	if fileURI == "" || line <= 0 {
		return nil
	}

	text := ""
	if region := loc.PhysicalLocation.Region; region.Snippet != nil && region.Snippet.Text != nil {
		text = *region.Snippet.Text
	}
	if strings.TrimSpace(text) == "" {
		codeLine, err := readLine(localPath, line)
		if err != nil {
			r.log().Debug("can't read source line", "file", localPath, "line", line, "err", err)
		}
		text = codeLine
	}
	return &endpoint.CodePoint{File: fileURI, Line: line, Text: strings.TrimSpace(text)}
}
