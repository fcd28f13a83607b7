package parameter

import (
	"regexp"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-correlator/pkg/endpoint"
)

var requestParameterRe = regexp.MustCompile(`request\s*\.\s*getParameter\s*\(\s*"([^"]+)"\s*\)`)

// JSPDataFlowParser finds the first request.getParameter("name") call of a trace.
type JSPDataFlowParser struct {
	logger hclog.Logger
}

func NewJSPDataFlowParser(logger hclog.Logger) *JSPDataFlowParser {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &JSPDataFlowParser{logger: logger}
}

func (p *JSPDataFlowParser) Parse(q *endpoint.Query) (string, bool) {
	for _, point := range traceOf(q) {
		if match := requestParameterRe.FindStringSubmatch(point.Text); match != nil {
			p.logger.Debug("parameter found", "parameter", match[1], "file", point.File, "line", point.Line)
			return match[1], true
		}
	}
	return "", false
}
