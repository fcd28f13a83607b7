package urlpath

import (
	"regexp"
	"strings"
)

// GenericSegment replaces every variable path segment so that route templates
// and concrete URLs can be compared as plain strings.
const GenericSegment = "{id}"

var captureRe = regexp.MustCompile(`\{[^}]+\}`)

// CleanDeclared normalises a route template: wildcard segments ("*") and
// capture tokens ("{ownerId}") become GenericSegment.
func CleanDeclared(raw string) string {
	if raw == "" {
		return ""
	}
	segments := strings.Split(raw, "/")
	for i, segment := range segments {
		if segment == "*" {
			segments[i] = GenericSegment
			continue
		}
		segments[i] = captureRe.ReplaceAllString(segment, GenericSegment)
	}
	return strings.Join(segments, "/")
}

// CleanObserved normalises a URL seen by a dynamic scanner: a trailing ".html"
// suffix is removed and purely numeric segments become GenericSegment.
func CleanObserved(raw string) string {
	if raw == "" {
		return ""
	}
	raw = strings.TrimSuffix(raw, ".html")
	segments := strings.Split(raw, "/")
	for i, segment := range segments {
		if isNumeric(segment) {
			segments[i] = GenericSegment
		}
	}
	return strings.Join(segments, "/")
}

// Canonical applies both the template and the observed-URL rules, so
// Canonical("/owners/{id}/pets") == Canonical("/owners/42/pets").
func Canonical(raw string) string {
	return CleanObserved(CleanDeclared(raw))
}

// StripQuery removes the query string and fragment of a URL path.
func StripQuery(raw string) string {
	if idx := strings.IndexAny(raw, "?#"); idx != -1 {
		return raw[:idx]
	}
	return raw
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
