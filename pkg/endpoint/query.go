package endpoint

// Query holds the criteria used to look up the endpoint of a finding.
// A Query is read-only once built; use QueryBuilder to create one.
type Query struct {
	dynamicPath string
	staticPath  string
	lineNumber  int
	httpMethod  string
	parameter   string
	codePoints  []*CodePoint
}

func (q *Query) DynamicPath() string {
	if q == nil {
		return ""
	}
	return q.dynamicPath
}

func (q *Query) StaticPath() string {
	if q == nil {
		return ""
	}
	return q.staticPath
}

func (q *Query) LineNumber() int {
	if q == nil {
		return 0
	}
	return q.lineNumber
}

func (q *Query) HTTPMethod() string {
	if q == nil {
		return ""
	}
	return q.httpMethod
}

func (q *Query) Parameter() string {
	if q == nil {
		return ""
	}
	return q.parameter
}

// CodePoints returns a copy of the trace, nil entries included.
func (q *Query) CodePoints() []*CodePoint {
	if q == nil {
		return nil
	}
	return append([]*CodePoint(nil), q.codePoints...)
}

// IsStatic reports whether the query carries a file location, directly or through its trace.
func (q *Query) IsStatic() bool {
	_, _, ok := q.staticLocation()
	return ok
}

// staticLocation returns the explicit static path, or the first non-nil code point.
func (q *Query) staticLocation() (string, int, bool) {
	if q == nil {
		return "", 0, false
	}
	if q.staticPath != "" {
		return q.staticPath, q.lineNumber, true
	}
	for _, point := range q.codePoints {
		if point != nil && point.File != "" {
			return point.File, point.Line, true
		}
	}
	return "", 0, false
}

// QueryBuilder assembles a Query step by step.
type QueryBuilder struct {
	query Query
}

// NewQueryBuilder starts an empty query.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

func (b *QueryBuilder) WithDynamicPath(urlPath string) *QueryBuilder {
	b.query.dynamicPath = urlPath
	return b
}

func (b *QueryBuilder) WithStaticPath(filePath string) *QueryBuilder {
	b.query.staticPath = filePath
	return b
}

func (b *QueryBuilder) WithLineNumber(line int) *QueryBuilder {
	b.query.lineNumber = line
	return b
}

func (b *QueryBuilder) WithHTTPMethod(method string) *QueryBuilder {
	b.query.httpMethod = method
	return b
}

func (b *QueryBuilder) WithParameter(parameter string) *QueryBuilder {
	b.query.parameter = parameter
	return b
}

func (b *QueryBuilder) WithCodePoints(points []*CodePoint) *QueryBuilder {
	b.query.codePoints = append([]*CodePoint(nil), points...)
	return b
}

// Build returns a copy of the accumulated query, so the builder can be reused.
func (b *QueryBuilder) Build() *Query {
	q := b.query
	q.codePoints = append([]*CodePoint(nil), b.query.codePoints...)
	return &q
}
