package framework

import (
	"os"
	"strings"

	"github.com/beevik/etree"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-correlator/pkg/projectdir"
)

// Type identifies the web framework of the analysed application.
type Type string

const (
	None      Type = "NONE"
	Detect    Type = "DETECT"
	JSP       Type = "JSP"
	SpringMVC Type = "SPRING_MVC"
)

// Default is used when the framework type is unknown or not configured.
const Default = Detect

const dispatcherServlet = "org.springframework.web.servlet.DispatcherServlet"

var displayNames = map[Type]string{
	None:      "None",
	Detect:    "Detect",
	JSP:       "JSP",
	SpringMVC: "Spring MVC",
}

// Types returns every supported framework type.
func Types() []Type {
	return []Type{None, Detect, JSP, SpringMVC}
}

// DisplayName returns a human friendly name of the framework type.
func (t Type) DisplayName() string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}

// IsValid reports whether t is one of the supported framework types.
func (t Type) IsValid() bool {
	_, ok := displayNames[t]
	return ok
}

// Parse converts an enum name or a display name into a Type.
// Unknown and empty inputs fall back to Default.
func Parse(input string) Type {
	input = strings.TrimSpace(input)
	if input == "" {
		return Default
	}

	for _, t := range Types() {
		if string(t) == input {
			return t
		}
	}
	for _, t := range Types() {
		if strings.EqualFold(t.DisplayName(), input) || strings.EqualFold(string(t), input) {
			return t
		}
	}
	return Default
}

// Resolve returns t unless it asks for detection, in which case the project tree is inspected.
func Resolve(t Type, index *projectdir.Index, logger hclog.Logger) Type {
	if t != Detect {
		return t
	}
	return DetectType(index, logger)
}

// DetectType guesses the framework of the project behind index.
// A web.xml wiring Spring's DispatcherServlet means Spring MVC, any JSP page means JSP.
func DetectType(index *projectdir.Index, logger hclog.Logger) Type {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if index == nil || index.Len() == 0 {
		logger.Debug("empty project index, framework type is not detected")
		return None
	}

	if webXML, ok := index.FindWebXML(); ok {
		content, err := os.ReadFile(webXML)
		if err != nil {
			logger.Warn("failed to read web.xml", "path", webXML, "error", err)
		} else if declaresDispatcherServlet(content) {
			logger.Debug("detected framework", "type", SpringMVC, "webxml", webXML)
			return SpringMVC
		}
	}

	if pages := index.FindFiles("*.jsp"); len(pages) > 0 {
		logger.Debug("detected framework", "type", JSP, "pages", len(pages))
		return JSP
	}

	return None
}

// declaresDispatcherServlet reports whether a deployment descriptor maps a servlet to
// Spring's DispatcherServlet. Descriptors that are not well-formed XML are searched as text.
func declaresDispatcherServlet(content []byte) bool {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return strings.Contains(string(content), dispatcherServlet)
	}
	for _, class := range doc.FindElements("//servlet-class") {
		if strings.TrimSpace(class.Text()) == dispatcherServlet {
			return true
		}
	}
	return false
}
