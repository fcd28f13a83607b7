// Package project assembles everything the commands need to correlate findings for one
// analysed application: its source tree, framework, path cleaner, declared endpoints,
// matcher and parameter parser.
package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-correlator/internal/git"
	"github.com/scan-io-git/scanio-correlator/pkg/correlation"
	"github.com/scan-io-git/scanio-correlator/pkg/endpoint"
	"github.com/scan-io-git/scanio-correlator/pkg/framework"
	"github.com/scan-io-git/scanio-correlator/pkg/parameter"
	"github.com/scan-io-git/scanio-correlator/pkg/pathcleaner"
	"github.com/scan-io-git/scanio-correlator/pkg/projectdir"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/config"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/files"
)

// Options selects the project to load.
type Options struct {
	Correlation config.Correlation
	// SourceFolder is the folder the scanners ran against. It defaults the project root
	// to the enclosing git repository.
	SourceFolder string
	// Declarations are endpoint declaration files. Without them the project has no endpoints.
	Declarations []string
}

type Project struct {
	Root      string
	Framework framework.Type
	Index     *projectdir.Index
	Cleaner   pathcleaner.PathCleaner
	Endpoints []endpoint.Endpoint
	Matcher   *endpoint.Matcher
	Parser    parameter.Parser
	Metadata  *git.RepositoryMetadata

	logger hclog.Logger
}

// Load builds a Project. Only unreadable declaration files and an invalid source folder
// are errors; a missing project root just leaves the index empty.
func Load(opts Options, logger hclog.Logger) (*Project, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	p := &Project{logger: logger}

	if err := p.resolveRoot(opts); err != nil {
		return nil, err
	}
	if p.Root != "" {
		p.Index = projectdir.New(p.Root, logger.Named("index"))
	}

	p.Framework = framework.Resolve(framework.Parse(opts.Correlation.Framework), p.Index, logger)
	p.Cleaner = p.newCleaner(opts.Correlation)
	p.Parser = parameter.NewParser(p.Framework, logger)
	logger.Debug("project loaded", "root", p.Root, "framework", p.Framework, "cleaner", p.Cleaner.String())

	var decls []endpoint.Declaration
	for _, path := range opts.Declarations {
		loaded, err := endpoint.LoadDeclarations(path)
		if err != nil {
			return nil, err
		}
		decls = append(decls, loaded...)
	}
	for i := range decls {
		decls[i].File = p.Anchor(decls[i].File)
	}

	p.Endpoints = endpoint.FromDeclarations(decls, p.Framework, p.Cleaner, logger)
	p.Matcher = endpoint.NewMatcher(p.Endpoints, p.Cleaner, p.Index, logger.Named("matcher"))
	logger.Info("endpoints loaded", "declared", len(decls), "usable", len(p.Endpoints))
	return p, nil
}

func (p *Project) resolveRoot(opts Options) error {
	source := strings.TrimSpace(opts.SourceFolder)
	if source != "" {
		expanded, err := files.ExpandPath(source)
		if err != nil {
			return fmt.Errorf("failed to expand source folder: %w", err)
		}
		if err := files.ValidateDir(expanded); err != nil {
			return fmt.Errorf("invalid source folder: %w", err)
		}
		md, err := git.CollectRepositoryMetadata(expanded)
		if err != nil {
			p.logger.Debug("unable to collect repository metadata", "error", err)
		}
		p.Metadata = md
	}

	switch {
	case opts.Correlation.ProjectRoot != "":
		p.Root = opts.Correlation.ProjectRoot
	case p.Metadata != nil:
		p.Root = p.Metadata.RepoRootFolder
	}
	if p.Root != "" {
		if abs, err := filepath.Abs(p.Root); err == nil {
			p.Root = abs
		}
	}
	return nil
}

// newCleaner prefers explicit roots, then partial mappings, then the project root.
func (p *Project) newCleaner(c config.Correlation) pathcleaner.PathCleaner {
	if c.StaticRoot == "" && c.DynamicRoot == "" && len(c.PartialMappings) > 0 {
		return pathcleaner.New(p.Framework, c.PartialMappings)
	}

	staticRoot := config.SetThen(c.StaticRoot, p.Root)
	if p.Framework == framework.JSP {
		return pathcleaner.NewJSP(staticRoot, c.DynamicRoot, p.webappRoot(staticRoot))
	}
	return pathcleaner.NewWithRoots(p.Framework, staticRoot, c.DynamicRoot)
}

// webappRoot is the folder holding WEB-INF, relative to staticRoot, since pages are served from it.
func (p *Project) webappRoot(staticRoot string) string {
	if p.Index == nil {
		return ""
	}
	webXML, ok := p.Index.FindWebXML()
	if !ok {
		return ""
	}
	root := filepath.ToSlash(filepath.Dir(filepath.Dir(webXML)))
	if staticRoot != "" {
		root = strings.TrimPrefix(root, filepath.ToSlash(staticRoot))
	}
	return root
}

// Anchor makes a project-relative path absolute so that it cleans like the declared files.
// Absolute paths and paths without a project root are returned unchanged.
func (p *Project) Anchor(path string) string {
	return anchor(p.Root, path)
}

// AnchorFinding anchors the file and trace of a static finding. SARIF paths are relative
// to the repository root, which may differ from the project root.
func (p *Project) AnchorFinding(f *correlation.Finding) {
	root := p.Root
	if p.Metadata != nil && p.Metadata.RepoRootFolder != "" {
		root = p.Metadata.RepoRootFolder
	}
	anchorFinding(root, f)
}

// AnchorProjectFinding anchors a finding whose paths are relative to the project root.
func (p *Project) AnchorProjectFinding(f *correlation.Finding) {
	anchorFinding(p.Root, f)
}

func anchorFinding(root string, f *correlation.Finding) {
	f.File = anchor(root, f.File)
	for _, point := range f.CodePoints {
		if point != nil {
			point.File = anchor(root, point.File)
		}
	}
}

func anchor(root, path string) string {
	if root == "" || path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return path
	}
	return filepath.Join(root, filepath.FromSlash(path))
}
