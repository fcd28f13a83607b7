// Package parameter recovers the HTTP parameter responsible for a static finding
// from the data-flow trace reported by the analyzer.
package parameter

import (
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-correlator/pkg/endpoint"
	"github.com/scan-io-git/scanio-correlator/pkg/framework"
)

// Parser extracts a parameter name from the trace of a query.
// The name is either a bare identifier or a dotted model path such as "owner.lastName".
type Parser interface {
	Parse(q *endpoint.Query) (string, bool)
}

// NewParser returns the parser for a framework, or nil when the framework has none.
func NewParser(t framework.Type, logger hclog.Logger) Parser {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	switch t {
	case framework.SpringMVC:
		return NewSpringDataFlowParser(logger.Named("spring-parser"))
	case framework.JSP:
		return NewJSPDataFlowParser(logger.Named("jsp-parser"))
	default:
		logger.Debug("no parameter parser for framework", "framework", t)
		return nil
	}
}

// traceOf returns the non-nil code points of q, or nil when there are none.
func traceOf(q *endpoint.Query) []*endpoint.CodePoint {
	if q == nil {
		return nil
	}
	return endpoint.CompactTrace(q.CodePoints())
}
