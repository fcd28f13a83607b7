package endpoint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-correlator/pkg/framework"
	"github.com/scan-io-git/scanio-correlator/pkg/pathcleaner"
	"github.com/scan-io-git/scanio-correlator/pkg/urlpath"
)

const defaultMethod = "GET"

// Endpoint is a route declared in the analysed application.
// The set of implementations is closed: SpringEndpoint and JSPEndpoint.
type Endpoint interface {
	Framework() framework.Type
	RawFilePath() string
	// FilePath is the declaring file with the static root stripped.
	FilePath() string
	RawURLPath() string
	// URLPath is the canonical URL: every variable segment is urlpath.GenericSegment.
	URLPath() string
	HTTPMethods() []string
	Parameters() []string
	StartLine() int
	EndLine() int
	MatchesLineNumber(line int) bool
	MatchesMethod(method string) bool
	GenerateEndpoints() []Generated
	String() string

	sealed()
}

// Generated is one concrete (method, URL, parameters) combination of a declared endpoint.
type Generated struct {
	Method     string   `json:"method" yaml:"method"`
	URL        string   `json:"url" yaml:"url"`
	Parameters []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// base carries the attributes every framework variant shares. All fields are computed
// in the constructor and never change afterwards.
type base struct {
	rawFilePath string
	filePath    string
	rawURLPath  string
	urlPath     string
	methods     []string
	parameters  []string
	startLine   int
	endLine     int
}

func newBase(decl Declaration, cleaner pathcleaner.PathCleaner, rawURL string) base {
	return base{
		rawFilePath: decl.File,
		filePath:    cleaner.CleanStatic(decl.File),
		rawURLPath:  rawURL,
		urlPath:     urlpath.Canonical(rawURL),
		methods:     cleanMethods(decl.Methods),
		parameters:  uniqueSorted(decl.Parameters),
		startLine:   decl.StartLine,
		endLine:     decl.EndLine,
	}
}

func (b *base) RawFilePath() string { return b.rawFilePath }
func (b *base) FilePath() string    { return b.filePath }
func (b *base) RawURLPath() string  { return b.rawURLPath }
func (b *base) URLPath() string     { return b.urlPath }
func (b *base) StartLine() int      { return b.startLine }
func (b *base) EndLine() int        { return b.endLine }

func (b *base) HTTPMethods() []string {
	return append([]string(nil), b.methods...)
}

func (b *base) Parameters() []string {
	return append([]string(nil), b.parameters...)
}

// MatchesLineNumber is true only strictly inside the declaration; the boundary lines do not match.
func (b *base) MatchesLineNumber(line int) bool {
	return line > b.startLine && line < b.endLine
}

func (b *base) MatchesMethod(method string) bool {
	if method == "" {
		return false
	}
	method = strings.ToUpper(method)
	for _, m := range b.effectiveMethods() {
		if m == method {
			return true
		}
	}
	return false
}

// GenerateEndpoints expands the declaration into one entry per HTTP method, sorted by method.
func (b *base) GenerateEndpoints() []Generated {
	methods := b.effectiveMethods()
	endpoints := make([]Generated, 0, len(methods))
	for _, method := range methods {
		endpoints = append(endpoints, Generated{
			Method:     method,
			URL:        b.urlPath,
			Parameters: b.Parameters(),
		})
	}
	return endpoints
}

func (b *base) effectiveMethods() []string {
	if len(b.methods) == 0 {
		return []string{defaultMethod}
	}
	return b.methods
}

func (b *base) describe() string {
	return fmt.Sprintf("[%s:%d-%d -> %v %s %v]", b.filePath, b.startLine, b.endLine, b.methods, b.urlPath, b.parameters)
}

func (b *base) sealed() {}

// SpringEndpoint is a controller method mapped with @RequestMapping and friends.
type SpringEndpoint struct {
	base
}

// NewSpringEndpoint builds a Spring MVC endpoint; the URL template is taken from the declaration.
func NewSpringEndpoint(decl Declaration, cleaner pathcleaner.PathCleaner) *SpringEndpoint {
	return &SpringEndpoint{base: newBase(decl, cleanerOrDefault(cleaner), decl.URL)}
}

func (e *SpringEndpoint) Framework() framework.Type { return framework.SpringMVC }
func (e *SpringEndpoint) String() string            { return e.describe() }

// JSPEndpoint is a page served directly by the template engine.
type JSPEndpoint struct {
	base
}

// NewJSPEndpoint builds a JSP endpoint. Without an explicit URL the page URL is
// inferred from the file path by the cleaner.
func NewJSPEndpoint(decl Declaration, cleaner pathcleaner.PathCleaner) *JSPEndpoint {
	if cleaner == nil {
		cleaner = pathcleaner.NewJSP("", "", "")
	}
	rawURL := decl.URL
	if rawURL == "" {
		rawURL = cleaner.StaticToDynamic(cleaner.CleanStatic(decl.File))
	}
	return &JSPEndpoint{base: newBase(decl, cleaner, rawURL)}
}

func (e *JSPEndpoint) Framework() framework.Type { return framework.JSP }
func (e *JSPEndpoint) String() string            { return e.describe() }

// New builds the endpoint variant matching the declaration's framework. Declarations without
// a framework use fallback.
func New(decl Declaration, fallback framework.Type, cleaner pathcleaner.PathCleaner) (Endpoint, error) {
	t := fallback
	if decl.Framework != "" {
		t = framework.Parse(decl.Framework)
	}

	switch t {
	case framework.SpringMVC:
		return NewSpringEndpoint(decl, cleaner), nil
	case framework.JSP:
		return NewJSPEndpoint(decl, cleaner), nil
	default:
		return nil, fmt.Errorf("unsupported framework %q for endpoint %s", t, decl.File)
	}
}

// FromDeclarations builds endpoints for all declarations, logging and skipping the ones that fail.
func FromDeclarations(decls []Declaration, fallback framework.Type, cleaner pathcleaner.PathCleaner, logger hclog.Logger) []Endpoint {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	endpoints := make([]Endpoint, 0, len(decls))
	for _, decl := range decls {
		e, err := New(decl, fallback, cleaner)
		if err != nil {
			logger.Warn("skipping endpoint declaration", "file", decl.File, "url", decl.URL, "error", err)
			continue
		}
		endpoints = append(endpoints, e)
	}
	return endpoints
}

// Sort orders endpoints by declaring file and then by start line.
func Sort(endpoints []Endpoint) {
	sort.SliceStable(endpoints, func(i, j int) bool {
		if endpoints[i].RawFilePath() != endpoints[j].RawFilePath() {
			return endpoints[i].RawFilePath() < endpoints[j].RawFilePath()
		}
		return endpoints[i].StartLine() < endpoints[j].StartLine()
	})
}

// cleanMethods strips framework qualifiers such as "RequestMethod." and upper-cases the verbs.
func cleanMethods(methods []string) []string {
	cleaned := make([]string, 0, len(methods))
	for _, method := range methods {
		method = strings.TrimSpace(method)
		if idx := strings.LastIndex(method, "."); idx != -1 {
			method = method[idx+1:]
		}
		if method != "" {
			cleaned = append(cleaned, strings.ToUpper(method))
		}
	}
	return uniqueSorted(cleaned)
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func cleanerOrDefault(cleaner pathcleaner.PathCleaner) pathcleaner.PathCleaner {
	if cleaner == nil {
		return pathcleaner.NewDefault("", "")
	}
	return cleaner
}
