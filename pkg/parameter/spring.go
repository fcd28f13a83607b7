package parameter

import (
	"regexp"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-correlator/pkg/endpoint"
)

const getterChain = `((?:\.get[A-Z][\w$]*\(\))+)`

var getterRe = regexp.MustCompile(`\.get([A-Z][\w$]*)\(\)`)

// accessors that never lead to a bound property
var nonPropertyGetters = map[string]bool{
	"Class": true,
	"Bytes": true,
	"Chars": true,
}

// SpringDataFlowParser resolves the request parameter behind a Spring MVC controller trace.
// The first code point holds the handler signature; the following ones show how the
// tainted value travels to the sink.
type SpringDataFlowParser struct {
	logger hclog.Logger
}

func NewSpringDataFlowParser(logger hclog.Logger) *SpringDataFlowParser {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SpringDataFlowParser{logger: logger}
}

// Parse returns the parameter name for the trace of q. Named bindings return their
// bound name, model attributes return a dotted path built from getter chains.
func (p *SpringDataFlowParser) Parse(q *endpoint.Query) (string, bool) {
	trace := traceOf(q)
	if len(trace) == 0 {
		return "", false
	}

	candidates := parseSignature(trace[0].Text)
	if len(candidates) == 0 {
		p.logger.Debug("no request-bound parameters in signature", "file", trace[0].File, "line", trace[0].Line)
		return "", false
	}

	lines := make([]string, 0, len(trace)-1)
	for _, point := range trace[1:] {
		lines = append(lines, point.Text)
	}

	chosen, ok := pickCandidate(candidates, lines)
	if !ok {
		p.logger.Debug("none of the signature parameters is used in the trace", "candidates", len(candidates))
		return "", false
	}

	if chosen.kind != modelAttribute {
		return chosen.name, true
	}
	return followGetters(chosen, lines), true
}

// pickCandidate returns the first candidate, in binding priority order, referenced by
// one of lines. Among model attributes one that starts a getter chain wins over one that
// is only mentioned. A lone candidate is kept even when the trace never mentions it.
func pickCandidate(candidates []candidate, lines []string) (candidate, bool) {
	for _, kind := range []bindingKind{namedBinding, implicitBinding} {
		for _, c := range candidates {
			if c.kind == kind && referenced(c.identifier, lines) {
				return c, true
			}
		}
	}

	var mentioned *candidate
	for i, c := range candidates {
		if c.kind != modelAttribute || !referenced(c.identifier, lines) {
			continue
		}
		if followGetters(c, lines) != c.name {
			return c, true
		}
		if mentioned == nil {
			mentioned = &candidates[i]
		}
	}
	if mentioned != nil {
		return *mentioned, true
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}
	return candidate{}, false
}

func referenced(identifier string, lines []string) bool {
	re := identifierPattern(identifier, "")
	for _, line := range lines {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// followGetters extends the model attribute name with every getter chain hanging off the
// tracked identifier. After a chain the tracked identifier becomes the last property read,
// so a value extracted on one line can be followed on the next.
func followGetters(c candidate, lines []string) string {
	path := c.name
	tracked := c.identifier

	chainRe := identifierPattern(tracked, getterChain)
	for _, line := range lines {
		offset := 0
		for offset < len(line) {
			loc := chainRe.FindStringSubmatchIndex(line[offset:])
			if loc == nil {
				break
			}
			chain := line[offset+loc[2] : offset+loc[3]]
			offset += loc[1]

			extended := false
			for _, getter := range getterRe.FindAllStringSubmatch(chain, -1) {
				if nonPropertyGetters[getter[1]] {
					break
				}
				property := decapitalize(getter[1])
				path += "." + property
				tracked = property
				extended = true
			}
			if !extended {
				break
			}
			chainRe = identifierPattern(tracked, getterChain)
		}
	}
	return path
}

// identifierPattern matches identifier as a whole word, followed by suffix.
func identifierPattern(identifier, suffix string) *regexp.Regexp {
	if suffix == "" {
		suffix = `(?:[^\w$]|$)`
	}
	return regexp.MustCompile(`(?:^|[^\w$.])` + regexp.QuoteMeta(identifier) + suffix)
}
