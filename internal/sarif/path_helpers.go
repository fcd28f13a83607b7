package sarif

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/scanio-correlator/internal/git"
)

// NormalisedSubfolder returns the scanned subfolder of the repository with forward slashes
// and without leading or trailing separators. Empty when metadata is nil.
func NormalisedSubfolder(md *git.RepositoryMetadata) string {
	if md == nil {
		return ""
	}
	return strings.ReplaceAll(strings.Trim(md.Subfolder, "/\\"), "\\", "/")
}

// PathWithin reports whether path is root or lies below it. An empty root contains everything.
func PathWithin(path, root string) bool {
	if root == "" {
		return true
	}
	cleanPath, cleanRoot := absOrClean(path), absOrClean(root)
	return cleanPath == cleanRoot || strings.HasPrefix(cleanPath, cleanRoot+string(filepath.Separator))
}

// ResolveRelativeLocalPath turns a relative SARIF URI into a local path. The repository root,
// the scanned subfolder and the source folder are tried in that order; the first existing
// file inside the repository wins. Without an existing file the most specific candidate
// inside the repository is returned.
func ResolveRelativeLocalPath(cleanURI, repoRoot, subfolder, absSource string) string {
	var bases []string
	seen := map[string]bool{}
	for _, base := range []string{repoRoot, joinIf(repoRoot, subfolder), absSource} {
		if base == "" {
			continue
		}
		base = absOrClean(base)
		if !seen[base] {
			seen[base] = true
			bases = append(bases, base)
		}
	}

	for _, base := range bases {
		candidate := filepath.Join(base, cleanURI)
		if repoRoot != "" && !PathWithin(candidate, repoRoot) {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	// scanners usually report paths relative to the folder they ran in
	for i := len(bases) - 1; i >= 0; i-- {
		if candidate := filepath.Join(bases[i], cleanURI); repoRoot == "" || PathWithin(candidate, repoRoot) {
			return candidate
		}
	}
	if absSource != "" {
		return filepath.Join(absSource, cleanURI)
	}
	return ""
}

// ConvertToRepoRelativePath converts a SARIF artifact URI, absolute or relative and with
// or without a file:// scheme, to a forward-slash path relative to the repository root.
// Without repository metadata the source folder is used as the anchor.
func ConvertToRepoRelativePath(rawURI string, repoMetadata *git.RepositoryMetadata, sourceFolder string) string {
	cleanURI := normaliseURI(rawURI)
	if cleanURI == "" {
		return ""
	}
	repoRoot, subfolder, absSource := anchors(repoMetadata, sourceFolder)

	var repoPath string
	if filepath.IsAbs(cleanURI) {
		if repoRoot != "" {
			if rel, err := filepath.Rel(repoRoot, cleanURI); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
				repoPath = rel
			}
		}
		if repoPath == "" && absSource != "" {
			if rel, err := filepath.Rel(absSource, cleanURI); err == nil {
				repoPath = rel
			}
		}
		if repoPath == "" {
			repoPath = strings.TrimPrefix(cleanURI, string(filepath.Separator))
		}
	} else {
		localPath := ResolveRelativeLocalPath(cleanURI, repoRoot, subfolder, absSource)
		if repoRoot != "" && localPath != "" && PathWithin(localPath, repoRoot) {
			if rel, err := filepath.Rel(repoRoot, localPath); err == nil && rel != "." {
				repoPath = rel
			}
		}
		if repoPath == "" {
			normalised := strings.TrimLeft(filepath.ToSlash(cleanURI), "./")
			if subfolder != "" && normalised != subfolder && !strings.HasPrefix(normalised, subfolder+"/") {
				normalised = subfolder + "/" + normalised
			}
			repoPath = normalised
		}
	}
	return strings.TrimLeft(filepath.ToSlash(repoPath), "/")
}

// CalculateLocalPath returns the local file a SARIF URI points to, used to read source lines.
func CalculateLocalPath(rawURI string, repoMetadata *git.RepositoryMetadata, absSourceFolder string) string {
	cleanURI := normaliseURI(rawURI)
	if cleanURI == "" {
		return ""
	}
	if filepath.IsAbs(cleanURI) {
		return cleanURI
	}
	repoRoot, subfolder, absSource := anchors(repoMetadata, absSourceFolder)
	return ResolveRelativeLocalPath(cleanURI, repoRoot, subfolder, absSource)
}

// ExtractFileURIFromLocation returns the repository-relative path and the local path of a location.
func ExtractFileURIFromLocation(loc *sarif.Location, absSourceFolder string, repoMetadata *git.RepositoryMetadata) (string, string) {
	if loc == nil || loc.PhysicalLocation == nil {
		return "", ""
	}
	art := loc.PhysicalLocation.ArtifactLocation
	if art == nil || art.URI == nil || strings.TrimSpace(*art.URI) == "" {
		return "", ""
	}
	return ConvertToRepoRelativePath(*art.URI, repoMetadata, absSourceFolder),
		CalculateLocalPath(*art.URI, repoMetadata, absSourceFolder)
}

// ExtractFileURIFromResult applies ExtractFileURIFromLocation to the first location of a result.
func ExtractFileURIFromResult(res *sarif.Result, absSourceFolder string, repoMetadata *git.RepositoryMetadata) (string, string) {
	if res == nil || len(res.Locations) == 0 {
		return "", ""
	}
	return ExtractFileURIFromLocation(res.Locations[0], absSourceFolder, repoMetadata)
}

// ExtractRegionFromLocation returns the start and end line of a location, 0 when absent.
func ExtractRegionFromLocation(loc *sarif.Location) (int, int) {
	if loc == nil || loc.PhysicalLocation == nil || loc.PhysicalLocation.Region == nil {
		return 0, 0
	}
	region := loc.PhysicalLocation.Region
	start, end := 0, 0
	if region.StartLine != nil {
		start = *region.StartLine
	}
	if region.EndLine != nil {
		end = *region.EndLine
	}
	return start, end
}

// ExtractRegionFromResult applies ExtractRegionFromLocation to the first location of a result.
func ExtractRegionFromResult(res *sarif.Result) (int, int) {
	if res == nil || len(res.Locations) == 0 {
		return 0, 0
	}
	return ExtractRegionFromLocation(res.Locations[0])
}

func normaliseURI(rawURI string) string {
	rawURI = strings.TrimSpace(rawURI)
	if rawURI == "" {
		return ""
	}
	return filepath.Clean(strings.TrimPrefix(filepath.FromSlash(rawURI), "file://"))
}

func anchors(md *git.RepositoryMetadata, sourceFolder string) (repoRoot, subfolder, absSource string) {
	if md != nil && strings.TrimSpace(md.RepoRootFolder) != "" {
		repoRoot = filepath.Clean(md.RepoRootFolder)
	}
	if s := strings.TrimSpace(sourceFolder); s != "" {
		absSource = absOrClean(s)
	}
	return repoRoot, NormalisedSubfolder(md), absSource
}

func absOrClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func joinIf(root, sub string) string {
	if root == "" || sub == "" {
		return ""
	}
	return filepath.Join(root, filepath.FromSlash(sub))
}
