package pathcleaner

import (
	"strings"
)

// PartialMapping pairs a URL fragment observed by a dynamic scanner with the source file
// fragment a static scanner reported for the same resource. Mappings are only used to
// guess the roots that have to be stripped on both sides.
type PartialMapping struct {
	StaticPath  string `yaml:"static_path" json:"static_path,omitempty"`
	DynamicPath string `yaml:"dynamic_path" json:"dynamic_path,omitempty"`
}

// FindOrParseProjectRoot returns the common directory of the static paths of mappings.
// When ext is set only static paths ending with it are considered.
func FindOrParseProjectRoot(mappings []PartialMapping, ext string) string {
	var paths []string
	for _, m := range mappings {
		if m.StaticPath == "" {
			continue
		}
		if ext != "" && !strings.HasSuffix(m.StaticPath, ext) {
			continue
		}
		paths = append(paths, m.StaticPath)
	}
	return CommonPath(paths)
}

// FindOrParseURLPath returns the common directory of the dynamic paths of mappings.
func FindOrParseURLPath(mappings []PartialMapping) string {
	var paths []string
	for _, m := range mappings {
		if m.DynamicPath != "" {
			paths = append(paths, m.DynamicPath)
		}
	}
	return CommonPath(paths)
}

// CommonPath returns the longest directory prefix shared by all paths, compared segment by
// segment. The last segment of each path is treated as a file name and never included.
// The separator of the first path is preserved and no trailing separator is kept.
func CommonPath(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	sep := "/"
	if !strings.Contains(paths[0], "/") && strings.Contains(paths[0], "\\") {
		sep = "\\"
	}

	split := make([][]string, len(paths))
	shortest := -1
	for i, p := range paths {
		segments := strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
		if len(segments) > 0 {
			segments = segments[:len(segments)-1]
		}
		split[i] = segments
		if shortest == -1 || len(segments) < shortest {
			shortest = len(segments)
		}
	}

	var common []string
	for i := 0; i < shortest; i++ {
		segment := split[0][i]
		for _, other := range split[1:] {
			if other[i] != segment {
				return joinRoot(common, sep, paths[0])
			}
		}
		common = append(common, segment)
	}
	return joinRoot(common, sep, paths[0])
}

func joinRoot(segments []string, sep, sample string) string {
	if len(segments) == 0 {
		return ""
	}
	root := strings.Join(segments, sep)
	if strings.HasPrefix(sample, "/") || strings.HasPrefix(sample, "\\") {
		root = sep + root
	}
	return root
}
