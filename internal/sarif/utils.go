package sarif

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var cweRegex = regexp.MustCompile(`(?i)^(?:external/cwe/)?CWE[-:]?\s*0*(\d+)\b`)

// displaySeverity normalizes SARIF severity levels to more descriptive labels.
func displaySeverity(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "error":
		return "High"
	case "warning":
		return "Medium"
	case "note":
		return "Low"
	case "none":
		return "Info"
	case "":
		return ""
	default:
		return cases.Title(language.Und).String(normalized)
	}
}

// cweFromTags returns the first CWE identifier found in the tags as "CWE-<n>".
// Semgrep writes "CWE-89: Improper ...", CodeQL writes "external/cwe/cwe-089".
func cweFromTags(tags []string) string {
	for _, tag := range tags {
		if m := cweRegex.FindStringSubmatch(strings.TrimSpace(tag)); len(m) == 2 {
			return "CWE-" + m[1]
		}
	}
	return ""
}

// tagsOf reads the "tags" property, which decodes from JSON as []interface{}.
func tagsOf(props map[string]interface{}) []string {
	if props == nil {
		return nil
	}
	switch v := props["tags"].(type) {
	case []string:
		return v
	case []interface{}:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	default:
		return nil
	}
}

// computeSnippetHash reads the snippet (single line or range) from localPath
// and returns its SHA256 hex string. Returns empty string on any error or if inputs are invalid.
func computeSnippetHash(localPath string, line, endLine int) string {
	if localPath == "" || line <= 0 {
		return ""
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	end := line
	if endLine > line {
		end = endLine
	}
	if line > len(lines) {
		return ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	sum := sha256.Sum256([]byte(strings.Join(lines[line-1:end], "\n")))
	return fmt.Sprintf("%x", sum[:])
}

// helper to fetch a string property safely
func getStringProp(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// function that calculates md5 hash for a given text
func calculateMD5Hash(text string) string {
	hash := md5.New()
	io.WriteString(hash, text)
	return hex.EncodeToString(hash.Sum(nil))
}
