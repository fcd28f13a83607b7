package endpoint

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-correlator/pkg/pathcleaner"
	"github.com/scan-io-git/scanio-correlator/pkg/projectdir"
	"github.com/scan-io-git/scanio-correlator/pkg/urlpath"
)

// Matcher finds the declared endpoints a finding refers to.
// It only reads its endpoints and index, so one Matcher can serve concurrent lookups.
type Matcher struct {
	endpoints []Endpoint
	cleaner   pathcleaner.PathCleaner
	index     *projectdir.Index
	logger    hclog.Logger
}

// NewMatcher creates a Matcher. The index is optional and only used to break ties.
func NewMatcher(endpoints []Endpoint, cleaner pathcleaner.PathCleaner, index *projectdir.Index, logger hclog.Logger) *Matcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Matcher{
		endpoints: append([]Endpoint(nil), endpoints...),
		cleaner:   cleanerOrDefault(cleaner),
		index:     index,
		logger:    logger,
	}
}

// Endpoints returns the declared endpoints known to the matcher.
func (m *Matcher) Endpoints() []Endpoint {
	if m == nil {
		return nil
	}
	return append([]Endpoint(nil), m.endpoints...)
}

// FindEndpoint returns the best endpoint for q. Several candidates are ordered by
// FindAllEndpoints and the first one wins.
func (m *Matcher) FindEndpoint(q *Query) (Endpoint, bool) {
	matches := m.FindAllEndpoints(q)
	if len(matches) == 0 {
		return nil, false
	}
	if len(matches) > 1 {
		m.logger.Debug("ambiguous endpoint match, picking the first candidate",
			"candidates", len(matches), "picked", matches[0].String())
	}
	return matches[0], true
}

// FindAllEndpoints returns every endpoint matching q, best candidate first.
// Static criteria (file and line) take precedence over dynamic ones (URL and method).
func (m *Matcher) FindAllEndpoints(q *Query) []Endpoint {
	if m == nil || q == nil || len(m.endpoints) == 0 {
		return nil
	}

	var matches []Endpoint
	if file, line, ok := q.staticLocation(); ok {
		matches = m.matchStatic(file, line)
	} else if q.dynamicPath != "" {
		matches = m.matchDynamic(q.dynamicPath, q.httpMethod)
	} else {
		m.logger.Debug("query has neither a file nor a URL")
		return nil
	}

	if len(matches) > 1 {
		m.rank(matches, q.parameter)
	}
	return matches
}

func (m *Matcher) matchStatic(file string, line int) []Endpoint {
	cleaned := m.cleaner.CleanStatic(file)

	var matches []Endpoint
	for _, e := range m.endpoints {
		if e.FilePath() == cleaned && e.MatchesLineNumber(line) {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		m.logger.Debug("no endpoint for static location", "file", cleaned, "line", line)
	}
	return matches
}

func (m *Matcher) matchDynamic(rawURL, method string) []Endpoint {
	cleaned := urlpath.Canonical(m.cleaner.CleanDynamic(urlpath.StripQuery(rawURL)))

	var matches []Endpoint
	for _, e := range m.endpoints {
		if e.URLPath() != cleaned {
			continue
		}
		if method != "" && !e.MatchesMethod(method) {
			continue
		}
		matches = append(matches, e)
	}
	if len(matches) == 0 {
		m.logger.Debug("no endpoint for dynamic location", "url", cleaned, "method", method)
	}
	return matches
}

// rank orders candidates: endpoints whose file still resolves in the project index first,
// then endpoints declaring the parameter, then the narrowest line span. Declaration order
// breaks the remaining ties.
func (m *Matcher) rank(matches []Endpoint, parameter string) {
	type ranked struct {
		resolves bool
		declares bool
		span     int
	}
	keys := make(map[Endpoint]ranked, len(matches))
	for _, e := range matches {
		keys[e] = ranked{
			resolves: m.resolves(e),
			declares: declaresParameter(e, parameter),
			span:     e.EndLine() - e.StartLine(),
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := keys[matches[i]], keys[matches[j]]
		if a.resolves != b.resolves {
			return a.resolves
		}
		if a.declares != b.declares {
			return a.declares
		}
		return a.span < b.span
	})
}

func (m *Matcher) resolves(e Endpoint) bool {
	if m.index == nil || e.RawFilePath() == "" {
		return false
	}
	_, ok := m.index.FindFile(e.RawFilePath())
	return ok
}

// declaresParameter accepts the full dotted name or its first or last segment,
// since model attributes may be declared either way.
func declaresParameter(e Endpoint, parameter string) bool {
	if parameter == "" {
		return false
	}
	candidates := []string{parameter}
	if segments := strings.Split(parameter, "."); len(segments) > 1 {
		candidates = append(candidates, segments[0], segments[len(segments)-1])
	}
	for _, declared := range e.Parameters() {
		for _, c := range candidates {
			if declared == c {
				return true
			}
		}
	}
	return false
}
