package correlation

import (
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-correlator/pkg/endpoint"
	"github.com/scan-io-git/scanio-correlator/pkg/parameter"
)

// EndpointRef is the printable identity of a resolved endpoint.
type EndpointRef struct {
	Framework string   `json:"framework"`
	File      string   `json:"file"`
	URL       string   `json:"url"`
	Methods   []string `json:"methods,omitempty"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
}

// NewEndpointRef describes e, or returns nil for a nil endpoint.
func NewEndpointRef(e endpoint.Endpoint) *EndpointRef {
	if e == nil {
		return nil
	}
	return &EndpointRef{
		Framework: string(e.Framework()),
		File:      e.FilePath(),
		URL:       e.URLPath(),
		Methods:   e.HTTPMethods(),
		StartLine: e.StartLine(),
		EndLine:   e.EndLine(),
	}
}

// Resolution is what the correlator learned about a single finding.
type Resolution struct {
	FindingID string       `json:"finding_id"`
	Endpoint  *EndpointRef `json:"endpoint,omitempty"`
	Parameter string       `json:"parameter,omitempty"`
}

// Group holds findings that describe the same vulnerable code path.
// Stage is the first stage that linked two of its findings.
type Group struct {
	Endpoint  EndpointRef `json:"endpoint"`
	Parameter string      `json:"parameter,omitempty"`
	Stage     int         `json:"stage"`
	Findings  []Finding   `json:"findings"`
}

// Correlator resolves findings to declared endpoints and groups the ones that hit the
// same endpoint. Use NewCorrelator to create an instance and call Process() to compute
// groups. After processing, use Groups(), Unmatched() and Resolutions() to inspect results.
type Correlator struct {
	Findings []Finding

	matcher *endpoint.Matcher
	parser  parameter.Parser
	logger  hclog.Logger

	// populated by Process(), indexed like Findings
	endpoints  []endpoint.Endpoint
	parameters []string
	links      *links

	processed bool
}

// NewCorrelator constructs a Correlator. The parser is optional; without it static
// findings keep whatever parameter they already carry.
func NewCorrelator(findings []Finding, matcher *endpoint.Matcher, parser parameter.Parser, logger hclog.Logger) *Correlator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Correlator{
		Findings: append([]Finding(nil), findings...),
		matcher:  matcher,
		parser:   parser,
		logger:   logger,
	}
}

// Process resolves every finding and links findings in two ordered stages:
// 1) same endpoint and same parameter
// 2) same endpoint when at least one of the two findings has no parameter
// A group never mixes two different parameters. Findings with conflicting CWE
// identifiers are never linked. Process is idempotent.
func (c *Correlator) Process() {
	if c.processed {
		return
	}

	n := len(c.Findings)
	c.endpoints = make([]endpoint.Endpoint, n)
	c.parameters = make([]string, n)
	for i := range c.Findings {
		if c.Findings[i].ID == "" {
			c.Findings[i].ID = uuid.New().String()
		}
		c.resolve(i)
	}

	cwes := make([]string, n)
	for i, f := range c.Findings {
		cwes[i] = strings.ToUpper(strings.TrimSpace(f.CWE))
	}
	c.links = newLinks(c.parameters, cwes)
	for _, stage := range []int{1, 2} {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if c.matchStage(i, j, stage) && c.links.union(i, j, stage) {
					c.logger.Debug("findings correlated", "stage", stage, "a", c.Findings[i].ID, "b", c.Findings[j].ID)
				}
			}
		}
	}

	c.processed = true
}

func (c *Correlator) resolve(i int) {
	f := c.Findings[i]
	b := endpoint.NewQueryBuilder()
	param := strings.TrimSpace(f.Parameter)

	if f.IsStatic() {
		b.WithStaticPath(f.File).WithLineNumber(f.Line).WithCodePoints(f.CodePoints)
		if param == "" && c.parser != nil {
			if parsed, ok := c.parser.Parse(b.Build()); ok {
				param = parsed
			}
		}
	} else {
		b.WithDynamicPath(f.URL).WithHTTPMethod(f.Method)
	}
	c.parameters[i] = param

	e, ok := c.matcher.FindEndpoint(b.WithParameter(param).Build())
	if !ok {
		c.logger.Debug("finding left unmatched", "id", f.ID, "file", f.File, "url", f.URL)
		return
	}
	c.endpoints[i] = e
}

// matchStage applies the specified stage matching rules to findings i and j.
func (c *Correlator) matchStage(i, j, stage int) bool {
	a, b := c.endpoints[i], c.endpoints[j]
	if a == nil || b == nil || a != b {
		return false
	}

	pa, pb := c.parameters[i], c.parameters[j]
	switch stage {
	case 1:
		return pa != "" && pb != "" && sameParameter(pa, pb)
	case 2:
		return pa == "" || pb == ""
	default:
		return false
	}
}

// sameParameter treats a model path and the request field it binds as one parameter:
// "owner.lastName" is the same as "lastName".
func sameParameter(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.HasSuffix(a, "."+b) || strings.HasSuffix(b, "."+a)
}

// Resolutions returns the endpoint and parameter resolved for each finding, in input order.
// If Process() has not yet been run it will be invoked.
func (c *Correlator) Resolutions() []Resolution {
	if !c.processed {
		c.Process()
	}

	out := make([]Resolution, 0, len(c.Findings))
	for i, f := range c.Findings {
		out = append(out, Resolution{
			FindingID: f.ID,
			Endpoint:  NewEndpointRef(c.endpoints[i]),
			Parameter: c.parameters[i],
		})
	}
	return out
}

// Groups returns every group of at least two correlated findings, ordered by the
// position of their first finding. If Process() has not yet been run it will be invoked.
func (c *Correlator) Groups() []Group {
	if !c.processed {
		c.Process()
	}

	members := make(map[int][]int)
	var roots []int
	for i := range c.Findings {
		root := c.links.find(i)
		if _, ok := members[root]; !ok {
			roots = append(roots, root)
		}
		members[root] = append(members[root], i)
	}

	var out []Group
	for _, root := range roots {
		idx := members[root]
		if len(idx) < 2 {
			continue
		}
		g := Group{
			Endpoint:  *NewEndpointRef(c.endpoints[idx[0]]),
			Parameter: c.links.parameter[root],
			Stage:     c.links.stage[root],
			Findings:  make([]Finding, 0, len(idx)),
		}
		for _, i := range idx {
			g.Findings = append(g.Findings, c.Findings[i])
		}
		out = append(out, g)
	}
	return out
}

// Unmatched returns the findings that were not correlated with any other finding.
// If Process() has not yet been run it will be invoked.
func (c *Correlator) Unmatched() []Finding {
	if !c.processed {
		c.Process()
	}

	var out []Finding
	for i, f := range c.Findings {
		if c.links.size[c.links.find(i)] < 2 {
			out = append(out, f)
		}
	}
	return out
}

// links is a union-find over finding indices. Each root remembers the parameter and
// CWE of its group and the stage that created it.
type links struct {
	parent    []int
	size      []int
	stage     []int
	parameter []string
	cwe       []string
}

func newLinks(parameters, cwes []string) *links {
	l := &links{
		parent:    make([]int, len(parameters)),
		size:      make([]int, len(parameters)),
		stage:     make([]int, len(parameters)),
		parameter: append([]string(nil), parameters...),
		cwe:       append([]string(nil), cwes...),
	}
	for i := range l.parent {
		l.parent[i] = i
		l.size[i] = 1
	}
	return l
}

func (l *links) find(i int) int {
	for l.parent[i] != i {
		l.parent[i] = l.parent[l.parent[i]]
		i = l.parent[i]
	}
	return i
}

// union merges the groups of a and b unless their parameters or CWEs conflict.
// It reports whether a new link was made.
func (l *links) union(a, b, stage int) bool {
	ra, rb := l.find(a), l.find(b)
	if ra == rb {
		return false
	}
	pa, pb := l.parameter[ra], l.parameter[rb]
	if pa != "" && pb != "" && !sameParameter(pa, pb) {
		return false
	}
	if ca, cb := l.cwe[ra], l.cwe[rb]; ca != "" && cb != "" && ca != cb {
		return false
	}

	// keep the earliest finding as root so groups keep input order
	if rb < ra {
		ra, rb = rb, ra
		pa, pb = pb, pa
	}
	l.parent[rb] = ra
	l.size[ra] += l.size[rb]
	if len(pb) > len(pa) {
		l.parameter[ra] = pb
	}
	if l.cwe[ra] == "" {
		l.cwe[ra] = l.cwe[rb]
	}

	s := stage
	for _, prev := range []int{l.stage[ra], l.stage[rb]} {
		if prev != 0 && prev < s {
			s = prev
		}
	}
	l.stage[ra] = s
	return true
}
