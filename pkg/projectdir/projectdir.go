package projectdir

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Index maps file names found under a project root to the relative paths where they occur.
// Relative paths start with the OS path separator, e.g. "/WEB-INF/web.xml".
// An Index is built once by New and never modified afterwards, so it can be shared
// read-only between goroutines.
type Index struct {
	root    string
	fileMap map[string][]string
	logger  hclog.Logger
}

// New walks root depth-first, skipping files and directories whose name starts with a dot,
// and returns the resulting index. A missing or non-directory root produces an empty index.
// Unreadable directories are logged and skipped.
func New(root string, logger hclog.Logger) *Index {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	idx := &Index{
		fileMap: make(map[string][]string),
		logger:  logger,
	}

	if strings.TrimSpace(root) == "" {
		logger.Debug("project root is not set, using an empty file index")
		return idx
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		logger.Warn("failed to resolve project root", "root", root, "error", err)
		return idx
	}
	idx.root = absRoot

	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		logger.Warn("project root is not a directory, using an empty file index", "root", absRoot)
		return idx
	}

	idx.walk(absRoot, make(map[string]bool))
	logger.Debug("project file index built", "root", absRoot, "names", len(idx.fileMap))
	return idx
}

// walk indexes the files of dir first and then descends into its subdirectories.
// Symbolic links are followed; ancestors holds the resolved directories of the current
// branch so a link pointing back up the tree is not descended.
func (i *Index) walk(dir string, ancestors map[string]bool) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		i.logger.Warn("failed to resolve directory, skipping it", "path", dir, "error", err)
		return
	}
	if ancestors[resolved] {
		i.logger.Debug("symbolic link cycle, skipping it", "path", dir, "target", resolved)
		return
	}
	ancestors[resolved] = true
	defer delete(ancestors, resolved)

	entries, err := os.ReadDir(dir)
	if err != nil {
		i.logger.Warn("failed to read directory, skipping it", "path", dir, "error", err)
		return
	}

	var directories []string
	for _, entry := range entries {
		name := entry.Name()
		if name == "" || name[0] == '.' {
			continue
		}

		fullPath := filepath.Join(dir, name)
		mode := entry.Type()
		if mode&os.ModeSymlink != 0 {
			info, err := os.Stat(fullPath)
			if err != nil {
				i.logger.Debug("dangling symbolic link, skipping it", "path", fullPath, "error", err)
				continue
			}
			mode = info.Mode()
		}

		switch {
		case mode.IsRegular():
			i.add(name, fullPath)
		case mode.IsDir():
			directories = append(directories, fullPath)
		}
	}

	for _, directory := range directories {
		i.walk(directory, ancestors)
	}
}

func (i *Index) add(name, fullPath string) {
	rel, err := filepath.Rel(i.root, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		i.logger.Warn("file index walk broke out of its starting directory", "path", fullPath)
		return
	}
	i.fileMap[name] = append(i.fileMap[name], string(filepath.Separator)+rel)
}

// Root returns the absolute project root, or an empty string when the index is empty.
func (i *Index) Root() string {
	if i == nil {
		return ""
	}
	return i.root
}

// Len returns the number of distinct file names in the index.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.fileMap)
}

// Paths returns the relative paths recorded for a file name, in walk order.
func (i *Index) Paths(name string) []string {
	if i == nil {
		return nil
	}
	paths := i.fileMap[name]
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}

// FindWebXML locates the deployment descriptor of a Java web application.
func (i *Index) FindWebXML() (string, bool) {
	return i.FindFile("WEB-INF/web.xml")
}

// FindFile returns the absolute path of the indexed file whose path best matches hint.
// The file name (last segment of hint) must match exactly; among files sharing that name
// the one with the longest common trailing path wins.
func (i *Index) FindFile(hint string) (string, bool) {
	if i == nil {
		return "", false
	}
	segments := SplitPath(hint)
	if len(segments) == 0 {
		return "", false
	}

	best, ok := i.bestOption(segments, segments[len(segments)-1])
	if !ok {
		return "", false
	}
	return i.existing(best)
}

// FindFiles resolves a hint whose file name may contain '*' wildcards.
// Every indexed file name matching the pattern is resolved separately and all existing
// files are returned, ordered by file name. Without a wildcard it behaves like FindFile.
func (i *Index) FindFiles(pattern string) []string {
	if i == nil {
		return nil
	}
	segments := SplitPath(pattern)
	if len(segments) == 0 {
		return nil
	}

	fileName := segments[len(segments)-1]
	if !strings.Contains(fileName, "*") {
		if file, ok := i.FindFile(pattern); ok {
			return []string{file}
		}
		return nil
	}

	fragments := strings.Split(fileName, "*")
	var names []string
	for name := range i.fileMap {
		if matchesWildcard(name, fragments) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var files []string
	for _, name := range names {
		best, ok := i.bestOption(segments, name)
		if !ok {
			continue
		}
		if file, ok := i.existing(best); ok {
			files = append(files, file)
		}
	}
	return files
}

// FindCanonicalFilePath returns the best matching relative path for hint with forward
// slashes. When root is non-empty and prefixes the result, it is stripped.
func (i *Index) FindCanonicalFilePath(hint, root string) (string, bool) {
	if i == nil {
		return "", false
	}
	segments := SplitPath(hint)
	if len(segments) == 0 {
		return "", false
	}

	best, ok := i.bestOption(segments, segments[len(segments)-1])
	if !ok {
		return "", false
	}

	canonical := strings.ReplaceAll(best, "\\", "/")
	if root != "" && strings.HasPrefix(canonical, root) {
		canonical = canonical[len(root):]
	}
	return canonical, true
}

// bestOption scores every relative path recorded for name against the hint segments.
// Ties keep the earliest candidate; a perfect score ends the scan.
func (i *Index) bestOption(segments []string, name string) (string, bool) {
	choices := i.fileMap[name]
	if len(choices) == 0 {
		return "", false
	}

	best := ""
	highest := -1
	for _, choice := range choices {
		score := Score(SplitPath(choice), segments)
		if score > highest {
			best = choice
			highest = score
			if score == len(segments) {
				break
			}
		}
	}
	return best, highest >= 0
}

func (i *Index) existing(relative string) (string, bool) {
	file := filepath.Join(i.root, relative)
	if _, err := os.Stat(file); err != nil {
		i.logger.Debug("indexed file no longer exists", "path", file)
		return "", false
	}
	return file, true
}

// Score counts the equal trailing segments of option and path, stopping at the first mismatch.
func Score(option, path []string) int {
	score := 0
	oi, pi := len(option)-1, len(path)-1
	for oi >= 0 && pi >= 0 && option[oi] == path[pi] {
		score++
		oi--
		pi--
	}
	return score
}

// SplitPath splits p on '/' or '\' and drops empty segments.
func SplitPath(p string) []string {
	if p == "" {
		return nil
	}
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
}

// matchesWildcard reports whether name starts with the first fragment, ends with the last
// and contains every fragment in order.
func matchesWildcard(name string, fragments []string) bool {
	switch len(fragments) {
	case 0:
		return false
	case 1:
		return name == fragments[0]
	}

	if !strings.HasPrefix(name, fragments[0]) || !strings.HasSuffix(name, fragments[len(fragments)-1]) {
		return false
	}

	rest := name
	for _, fragment := range fragments {
		idx := strings.Index(rest, fragment)
		if idx == -1 {
			return false
		}
		rest = rest[idx+len(fragment):]
	}
	return true
}
