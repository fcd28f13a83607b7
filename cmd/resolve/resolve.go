package resolve

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-correlator/internal/project"
	"github.com/scan-io-git/scanio-correlator/pkg/shared"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/config"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/errors"

	cmdutil "github.com/scan-io-git/scanio-correlator/internal/cmd"
)

// RunOptionsResolve holds the arguments for the resolve command.
type RunOptionsResolve struct {
	Correlation cmdutil.CorrelationOptions `json:"correlation"`
	Pattern     string                     `json:"pattern,omitempty"`
	OutputPath  string                     `json:"output_path,omitempty"`
}

// FileResolution is the outcome of resolving one file hint.
type FileResolution struct {
	Hint      string `json:"hint"`
	Path      string `json:"path,omitempty"`
	Canonical string `json:"canonical,omitempty"`
	Found     bool   `json:"found"`
}

// ResolveResult describes the project tree as the correlator sees it.
type ResolveResult struct {
	ProjectRoot  string           `json:"project_root"`
	Framework    string           `json:"framework"`
	IndexedFiles int              `json:"indexed_files"`
	WebXML       string           `json:"web_xml,omitempty"`
	Cleaner      string           `json:"cleaner"`
	Files        []FileResolution `json:"files,omitempty"`
	Matches      []string         `json:"matches,omitempty"`
}

var (
	AppConfig      *config.Config
	logger         hclog.Logger
	resolveOptions RunOptionsResolve

	exampleResolveUsage = `  # Detect the framework of a project
  scanio-correlator resolve --project-root /home/dev/petclinic

  # Resolve file hints reported by a scanner to files of the project
  scanio-correlator resolve --project-root /home/dev/petclinic owners/OwnerController.java WEB-INF/web.xml

  # List every JSP page of the project
  scanio-correlator resolve --project-root /home/dev/petclinic --pattern "*.jsp"`

	ResolveCmd = &cobra.Command{
		Use:                   "resolve --project-root PATH [--framework NAME] [--pattern GLOB] [--output PATH] [FILE_HINT...]",
		Short:                 "Index a project, detect its framework and resolve file hints",
		Example:               exampleResolveUsage,
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		RunE:                  runResolveCommand,
	}
)

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runResolveCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	correlation, err := cmdutil.ResolveCorrelation(AppConfig, resolveOptions.Correlation)
	if err != nil {
		logger.Error("invalid correlation settings", "error", err)
		return errors.NewCommandError(resolveOptions, nil, fmt.Errorf("invalid correlation settings: %w", err), 1)
	}

	if err := validateResolveArgs(&resolveOptions, correlation, args); err != nil {
		logger.Error("invalid command arguments", "error", err)
		return errors.NewCommandError(resolveOptions, nil, fmt.Errorf("invalid arguments: %w", err), 1)
	}

	p, err := project.Load(project.Options{Correlation: correlation}, logger)
	if err != nil {
		logger.Error("failed to load project", "error", err)
		return errors.NewCommandError(resolveOptions, nil, fmt.Errorf("failed to load project: %w", err), 2)
	}

	result := resolveFiles(p, args, resolveOptions.Pattern)
	if err := shared.WriteResult(cmd.OutOrStdout(), resolveOptions.OutputPath, "resolve.json", result, logger); err != nil {
		return errors.NewCommandError(resolveOptions, result, err, 2)
	}
	return nil
}

func resolveFiles(p *project.Project, hints []string, pattern string) ResolveResult {
	result := ResolveResult{
		ProjectRoot:  p.Root,
		Framework:    string(p.Framework),
		IndexedFiles: p.Index.Len(),
		Cleaner:      p.Cleaner.String(),
	}
	if webXML, ok := p.Index.FindWebXML(); ok {
		result.WebXML = webXML
	}

	for _, hint := range hints {
		r := FileResolution{Hint: hint}
		if path, ok := p.Index.FindFile(hint); ok {
			r.Path = path
			r.Found = true
			if canonical, ok := p.Index.FindCanonicalFilePath(hint, ""); ok {
				r.Canonical = filepath.ToSlash(canonical)
			}
		} else {
			logger.Warn("file hint not found in project", "hint", hint)
		}
		result.Files = append(result.Files, r)
	}

	if pattern != "" {
		result.Matches = p.Index.FindFiles(pattern)
	}
	return result
}

func init() {
	cmdutil.AddCorrelationFlags(ResolveCmd.Flags(), &resolveOptions.Correlation)
	ResolveCmd.Flags().StringVar(&resolveOptions.Pattern, "pattern", "", "File name pattern with '*' wildcards to look up, e.g. *.jsp")
	ResolveCmd.Flags().StringVarP(&resolveOptions.OutputPath, "output", "o", "", "Path to the output file or directory (default prints to stdout)")
	ResolveCmd.Flags().BoolP("help", "h", false, "Show help for resolve command.")
}
