package parameter

import (
	"regexp"
	"strings"
	"unicode"
)

type bindingKind int

const (
	// named binding annotation carrying an explicit name, e.g. @RequestParam("q")
	namedBinding bindingKind = iota
	// named binding annotation without a name, bound by the parameter identifier
	implicitBinding
	// model attribute populated field by field from request parameters
	modelAttribute
)

// candidate is a controller method parameter that may receive request data.
type candidate struct {
	name       string // name as seen by the HTTP client
	identifier string // name used in source code
	kind       bindingKind
}

var (
	bindingAnnotations = map[string]bool{
		"RequestParam":   true,
		"PathVariable":   true,
		"RequestHeader":  true,
		"CookieValue":    true,
		"MatrixVariable": true,
		"RequestPart":    true,
	}

	// parameters carrying these never map to a request parameter name
	ignoredAnnotations = map[string]bool{
		"RequestBody":             true,
		"RequestAttribute":        true,
		"SessionAttribute":        true,
		"AuthenticationPrincipal": true,
		"Value":                   true,
	}

	frameworkTypes = map[string]bool{
		"BindingResult":        true,
		"Errors":               true,
		"Model":                true,
		"ModelMap":             true,
		"ModelAndView":         true,
		"HttpServletRequest":   true,
		"HttpServletResponse":  true,
		"ServletRequest":       true,
		"ServletResponse":      true,
		"HttpSession":          true,
		"WebRequest":           true,
		"NativeWebRequest":     true,
		"Locale":               true,
		"TimeZone":             true,
		"ZoneId":               true,
		"Principal":            true,
		"SessionStatus":        true,
		"RedirectAttributes":   true,
		"UriComponentsBuilder": true,
		"HttpEntity":           true,
		"HttpMethod":           true,
		"HttpHeaders":          true,
		"InputStream":          true,
		"OutputStream":         true,
		"Reader":               true,
		"Writer":               true,
		"MultipartFile":        true,
	}

	simpleTypes = map[string]bool{
		"String": true, "CharSequence": true, "Object": true,
		"Integer": true, "int": true, "Long": true, "long": true,
		"Short": true, "short": true, "Byte": true, "byte": true,
		"Double": true, "double": true, "Float": true, "float": true,
		"Boolean": true, "boolean": true, "Character": true, "char": true,
		"BigDecimal": true, "BigInteger": true, "Number": true,
		"Date": true, "LocalDate": true, "LocalDateTime": true, "LocalTime": true,
		"UUID": true, "List": true, "Set": true, "Map": true, "Collection": true,
		"Optional": true, "MultiValueMap": true,
	}

	nameArgumentRe = regexp.MustCompile(`\b(?:value|name)\s*=\s*"([^"]*)"`)
	identifierRe   = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
)

// parseSignature returns the request-bound parameters of the method declared on line,
// in declaration order.
func parseSignature(line string) []candidate {
	params, ok := parameterList(line)
	if !ok {
		return nil
	}

	var candidates []candidate
	for _, param := range splitTopLevel(params) {
		if c, ok := parseParameter(param); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// parameterList returns the text between the parentheses of the first call-like group
// that is not an annotation argument list. An unterminated list runs to the end of line.
func parameterList(line string) (string, bool) {
	for i := 0; i < len(line); i++ {
		if line[i] != '(' {
			continue
		}
		start := i
		for start > 0 && isIdentByte(line[start-1]) {
			start--
		}
		end := matchingParen(line, i)
		if start == i || (start > 0 && line[start-1] == '@') {
			// annotation arguments or a bare group, skip past it
			if end < 0 {
				return "", false
			}
			i = end
			continue
		}
		if end < 0 {
			return line[i+1:], true
		}
		return line[i+1 : end], true
	}
	return "", false
}

// matchingParen returns the index of the parenthesis closing the one at open, or -1.
func matchingParen(s string, open int) int {
	depth := 0
	inString := false
	for i := open; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"' && (i == 0 || s[i-1] != '\\'):
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits a parameter list on commas outside of generics, parentheses
// and string literals.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	inString := false
	last := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"' && (i == 0 || s[i-1] != '\\'):
			inString = !inString
		case inString:
		case c == '(' || c == '<':
			depth++
		case c == ')' || c == '>':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[last:i])
			last = i + 1
		}
	}
	parts = append(parts, s[last:])

	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseParameter classifies one declaration such as
// `@RequestParam(value = "q", required = false) final String query`.
func parseParameter(param string) (candidate, bool) {
	rest := strings.TrimSpace(param)

	bindingName, hasBinding := "", false
	isModel, modelName := false, ""
	for strings.HasPrefix(rest, "@") {
		name, args, remaining := readAnnotation(rest)
		rest = remaining
		switch {
		case bindingAnnotations[name]:
			bindingName, hasBinding = annotationName(args), true
		case name == "ModelAttribute":
			isModel, modelName = true, annotationName(args)
		case ignoredAnnotations[name]:
			return candidate{}, false
		}
	}

	fields := strings.Fields(rest)
	var tokens []string
	for _, f := range fields {
		if f != "final" {
			tokens = append(tokens, f)
		}
	}
	if len(tokens) < 2 {
		return candidate{}, false
	}
	identifier := tokens[len(tokens)-1]
	if !identifierRe.MatchString(identifier) {
		return candidate{}, false
	}
	typeName := baseTypeName(strings.Join(tokens[:len(tokens)-1], ""))

	if hasBinding {
		if bindingName != "" {
			return candidate{name: bindingName, identifier: identifier, kind: namedBinding}, true
		}
		return candidate{name: identifier, identifier: identifier, kind: implicitBinding}, true
	}

	if frameworkTypes[typeName] {
		return candidate{}, false
	}
	if isModel && modelName != "" {
		return candidate{name: modelName, identifier: identifier, kind: modelAttribute}, true
	}
	if simpleTypes[typeName] || typeName == "" {
		return candidate{}, false
	}
	return candidate{name: decapitalize(typeName), identifier: identifier, kind: modelAttribute}, true
}

// readAnnotation consumes one leading annotation of s and returns its simple name,
// its argument text and the remainder of s.
func readAnnotation(s string) (name, args, rest string) {
	i := 1
	for i < len(s) && (isIdentByte(s[i]) || s[i] == '.') {
		i++
	}
	name = s[1:i]
	if idx := strings.LastIndex(name, "."); idx != -1 {
		name = name[idx+1:]
	}

	j := i
	for j < len(s) && s[j] == ' ' {
		j++
	}
	if j < len(s) && s[j] == '(' {
		if end := matchingParen(s, j); end != -1 {
			return name, s[j+1 : end], strings.TrimSpace(s[end+1:])
		}
		return name, s[j+1:], ""
	}
	return name, "", strings.TrimSpace(s[i:])
}

// annotationName returns the name an annotation binds to: a lone string literal
// or the value/name attribute.
func annotationName(args string) string {
	args = strings.TrimSpace(args)
	if strings.HasPrefix(args, `"`) {
		if end := strings.Index(args[1:], `"`); end != -1 {
			return args[1 : end+1]
		}
	}
	if match := nameArgumentRe.FindStringSubmatch(args); match != nil {
		return match[1]
	}
	return ""
}

// baseTypeName drops generics, array markers and the package of a declared type.
func baseTypeName(t string) string {
	if idx := strings.Index(t, "<"); idx != -1 {
		t = t[:idx]
	}
	t = strings.TrimSuffix(t, "...")
	t = strings.ReplaceAll(t, "[]", "")
	if idx := strings.LastIndex(t, "."); idx != -1 {
		t = t[idx+1:]
	}
	return t
}

// decapitalize follows the JavaBeans rule: "Owner" -> "owner", but "URL" stays "URL".
func decapitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	if len(runes) > 1 && unicode.IsUpper(runes[0]) && unicode.IsUpper(runes[1]) {
		return s
	}
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
