package pathcleaner

import (
	"fmt"
	"strings"

	"github.com/scan-io-git/scanio-correlator/pkg/framework"
	"github.com/scan-io-git/scanio-correlator/pkg/urlpath"
)

// PathCleaner strips project specific roots from static file paths and dynamic URL paths
// so that both kinds of findings can be compared in a root-relative form.
type PathCleaner interface {
	CleanStatic(filePath string) string
	CleanDynamic(urlPath string) string
	// StaticToDynamic infers the URL of a file when the framework maps files to URLs.
	// It returns an empty string when no such mapping exists.
	StaticToDynamic(filePath string) string
	StaticRoot() string
	DynamicRoot() string
	String() string
}

// New selects the cleaner for a framework and derives its roots from partial mappings.
func New(t framework.Type, mappings []PartialMapping) PathCleaner {
	switch t {
	case framework.SpringMVC:
		return NewSpring(FindOrParseProjectRoot(mappings, ""), FindOrParseURLPath(mappings))
	case framework.JSP:
		return NewJSPFromMappings(mappings)
	default:
		return NewDefault(FindOrParseProjectRoot(mappings, ""), FindOrParseURLPath(mappings))
	}
}

// NewWithRoots selects the cleaner for a framework using explicitly configured roots.
func NewWithRoots(t framework.Type, staticRoot, dynamicRoot string) PathCleaner {
	switch t {
	case framework.SpringMVC:
		return NewSpring(staticRoot, dynamicRoot)
	case framework.JSP:
		return NewJSP(staticRoot, dynamicRoot, "")
	default:
		return NewDefault(staticRoot, dynamicRoot)
	}
}

// Default strips literal prefixes. An empty root disables stripping on that side.
type Default struct {
	staticRoot  string
	dynamicRoot string
}

// NewDefault returns a cleaner that only strips the given roots.
func NewDefault(staticRoot, dynamicRoot string) *Default {
	return &Default{staticRoot: staticRoot, dynamicRoot: dynamicRoot}
}

// CleanStatic removes the static root from filePath.
func (c *Default) CleanStatic(filePath string) string {
	return stripPrefix(filePath, c.staticRoot)
}

// CleanDynamic removes the dynamic root from urlPath.
func (c *Default) CleanDynamic(urlPath string) string {
	return stripPrefix(urlPath, c.dynamicRoot)
}

// StaticToDynamic is unknown for frameworks that do not map files to URLs.
func (c *Default) StaticToDynamic(string) string {
	return ""
}

func (c *Default) StaticRoot() string  { return c.staticRoot }
func (c *Default) DynamicRoot() string { return c.dynamicRoot }

func (c *Default) String() string {
	return fmt.Sprintf("[PathCleaner dynamicRoot=%s, staticRoot=%s]", c.dynamicRoot, c.staticRoot)
}

// JSP additionally knows the folder holding the pages, which maps files to URLs.
type JSP struct {
	*Default
	jspRoot string
}

// NewJSP returns a JSP cleaner with explicit roots.
func NewJSP(staticRoot, dynamicRoot, jspRoot string) *JSP {
	return &JSP{Default: NewDefault(staticRoot, dynamicRoot), jspRoot: jspRoot}
}

// NewJSPFromMappings derives every root, including the page root, from partial mappings.
func NewJSPFromMappings(mappings []PartialMapping) *JSP {
	staticRoot := FindOrParseProjectRoot(mappings, "")
	jspRoot := FindOrParseProjectRoot(mappings, ".jsp")
	// StaticToDynamic receives cleaned paths, so the page root lives in the same frame.
	jspRoot = stripPrefix(jspRoot, staticRoot)
	return NewJSP(staticRoot, FindOrParseURLPath(mappings), jspRoot)
}

// JSPRoot returns the detected page root.
func (c *JSP) JSPRoot() string { return c.jspRoot }

// StaticToDynamic turns a cleaned page path (static root already stripped) into its URL:
// separators become '/', the page root is stripped and a leading '/' is guaranteed.
func (c *JSP) StaticToDynamic(filePath string) string {
	if filePath == "" {
		return ""
	}
	cleaned := strings.ReplaceAll(filePath, "\\", "/")
	root := strings.TrimSuffix(strings.ReplaceAll(c.jspRoot, "\\", "/"), "/")
	if root != "" && hasRootPrefix(cleaned, root) {
		cleaned = cleaned[len(root):]
	}
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}

func (c *JSP) String() string {
	return fmt.Sprintf("[JSP PathCleaner jspRoot=%s, dynamicRoot=%s, staticRoot=%s]", c.jspRoot, c.dynamicRoot, c.staticRoot)
}

// Spring normalises observed URLs the same way Spring route templates are normalised.
type Spring struct {
	*Default
}

// NewSpring returns a Spring MVC cleaner.
func NewSpring(staticRoot, dynamicRoot string) *Spring {
	return &Spring{Default: NewDefault(staticRoot, dynamicRoot)}
}

// CleanDynamic strips the dynamic root and replaces numeric segments with the generic segment.
func (c *Spring) CleanDynamic(urlPath string) string {
	return urlpath.CleanObserved(c.Default.CleanDynamic(urlPath))
}

func (c *Spring) String() string {
	return fmt.Sprintf("[Spring PathCleaner dynamicRoot=%s, staticRoot=%s]", c.dynamicRoot, c.staticRoot)
}

// stripPrefix removes root from the start of p for as long as root is followed by a path
// boundary, so "/app" strips "/app/x" but leaves "/application/x" alone and cleaning a
// cleaned path changes nothing.
func stripPrefix(p, root string) string {
	if root == "" {
		return p
	}
	for hasRootPrefix(p, root) {
		p = p[len(root):]
	}
	return p
}

func hasRootPrefix(p, root string) bool {
	if !strings.HasPrefix(p, root) {
		return false
	}
	if len(p) == len(root) {
		return true
	}
	if last := root[len(root)-1]; last == '/' || last == '\\' {
		return true
	}
	next := p[len(root)]
	return next == '/' || next == '\\'
}
