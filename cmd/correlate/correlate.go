package correlate

import (
	"fmt"
	"runtime"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/scan-io-git/scanio-correlator/internal/project"
	"github.com/scan-io-git/scanio-correlator/internal/sarif"
	"github.com/scan-io-git/scanio-correlator/pkg/correlation"
	"github.com/scan-io-git/scanio-correlator/pkg/shared"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/config"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/errors"

	cmdutil "github.com/scan-io-git/scanio-correlator/internal/cmd"
)

// RunOptionsCorrelate holds the arguments for the correlate command.
type RunOptionsCorrelate struct {
	Correlation    cmdutil.CorrelationOptions `json:"correlation"`
	Declarations   []string                   `json:"declarations"`
	Findings       []string                   `json:"findings,omitempty"`
	SarifInputs    []string                   `json:"sarif,omitempty"`
	SourceFolder   string                     `json:"source_folder,omitempty"`
	NoSuppressions bool                       `json:"no_suppressions,omitempty"`
	OutputPath     string                     `json:"output_path,omitempty"`
}

// CorrelateResult is the outcome of a correlation run.
type CorrelateResult struct {
	Framework   string                   `json:"framework"`
	Endpoints   int                      `json:"endpoints"`
	Findings    int                      `json:"findings"`
	Groups      []correlation.Group      `json:"groups"`
	Unmatched   []correlation.Finding    `json:"unmatched"`
	Resolutions []correlation.Resolution `json:"resolutions"`
}

var (
	AppConfig        *config.Config
	logger           hclog.Logger
	correlateOptions RunOptionsCorrelate

	exampleCorrelateUsage = `  # Correlate SAST and DAST findings of a Spring MVC application
  scanio-correlator correlate --declarations endpoints.yaml --sarif semgrep.sarif --findings zap.yaml --source-folder /home/dev/petclinic --dynamic-root /petclinic

  # Correlate findings already converted to the findings format and save the groups
  scanio-correlator correlate --declarations endpoints.yaml --findings sast.yaml,dast.yaml --project-root /home/dev/petclinic --output /tmp/results`

	CorrelateCmd = &cobra.Command{
		Use:                   "correlate --declarations PATH (--findings PATH | --sarif PATH)... [--source-folder PATH] [--output PATH]",
		Short:                 "Group static and dynamic findings that hit the same endpoint and parameter",
		Example:               exampleCorrelateUsage,
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		RunE:                  runCorrelateCommand,
	}
)

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runCorrelateCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	if err := validateCorrelateArgs(&correlateOptions, args); err != nil {
		logger.Error("invalid command arguments", "error", err)
		return errors.NewCommandError(correlateOptions, nil, fmt.Errorf("invalid arguments: %w", err), 1)
	}

	correlationSettings, err := cmdutil.ResolveCorrelation(AppConfig, correlateOptions.Correlation)
	if err != nil {
		logger.Error("invalid correlation settings", "error", err)
		return errors.NewCommandError(correlateOptions, nil, fmt.Errorf("invalid correlation settings: %w", err), 1)
	}

	p, err := project.Load(project.Options{
		Correlation:  correlationSettings,
		SourceFolder: correlateOptions.SourceFolder,
		Declarations: correlateOptions.Declarations,
	}, logger)
	if err != nil {
		logger.Error("failed to load project", "error", err)
		return errors.NewCommandError(correlateOptions, nil, fmt.Errorf("failed to load project: %w", err), 2)
	}

	findings, err := collectFindings(p, &correlateOptions)
	if err != nil {
		logger.Error("failed to collect findings", "error", err)
		return errors.NewCommandError(correlateOptions, nil, err, 2)
	}

	result := correlateFindings(p, findings)
	logger.Info("correlation finished", "findings", result.Findings, "groups", len(result.Groups), "unmatched", len(result.Unmatched))

	if err := shared.WriteResult(cmd.OutOrStdout(), correlateOptions.OutputPath, "correlation.json", result, logger); err != nil {
		return errors.NewCommandError(correlateOptions, result, err, 2)
	}
	return nil
}

// collectFindings reads the findings files and SARIF reports, anchoring static findings to
// the project so that their files clean like the declared ones.
func collectFindings(p *project.Project, options *RunOptionsCorrelate) ([]correlation.Finding, error) {
	var findings []correlation.Finding

	for _, path := range options.Findings {
		loaded, err := correlation.LoadFindings(path)
		if err != nil {
			return nil, err
		}
		for i := range loaded {
			if loaded[i].IsStatic() {
				p.AnchorProjectFinding(&loaded[i])
			}
		}
		logger.Debug("findings loaded", "path", path, "count", len(loaded))
		findings = append(findings, loaded...)
	}

	// reports are independent, read them in parallel and keep the input order
	reports := make([][]correlation.Finding, len(options.SarifInputs))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, path := range options.SarifInputs {
		i, path := i, path
		g.Go(func() error {
			report, err := sarif.ReadReport(path, logger, options.SourceFolder, options.NoSuppressions)
			if err != nil {
				return err
			}
			report.RemoveDataflowDuplicates()
			report.SortResultsByLevel()

			loaded := report.StaticFindings(p.Metadata)
			for j := range loaded {
				p.AnchorFinding(&loaded[j])
			}
			logger.Debug("sarif findings loaded", "path", path, "count", len(loaded))
			reports[i] = loaded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, loaded := range reports {
		findings = append(findings, loaded...)
	}
	return findings, nil
}

func correlateFindings(p *project.Project, findings []correlation.Finding) CorrelateResult {
	c := correlation.NewCorrelator(findings, p.Matcher, p.Parser, logger.Named("correlator"))
	c.Process()

	result := CorrelateResult{
		Framework:   string(p.Framework),
		Endpoints:   len(p.Endpoints),
		Findings:    len(c.Findings),
		Groups:      c.Groups(),
		Unmatched:   c.Unmatched(),
		Resolutions: c.Resolutions(),
	}
	if result.Groups == nil {
		result.Groups = []correlation.Group{}
	}
	if result.Unmatched == nil {
		result.Unmatched = []correlation.Finding{}
	}
	return result
}

func init() {
	cmdutil.AddCorrelationFlags(CorrelateCmd.Flags(), &correlateOptions.Correlation)
	CorrelateCmd.Flags().StringSliceVarP(&correlateOptions.Declarations, "declarations", "d", nil, "Endpoint declaration files in YAML or JSON (repeat flag or use comma-separated values)")
	CorrelateCmd.Flags().StringSliceVar(&correlateOptions.Findings, "findings", nil, "Findings files in YAML or JSON (repeat flag or use comma-separated values)")
	CorrelateCmd.Flags().StringSliceVarP(&correlateOptions.SarifInputs, "sarif", "i", nil, "SARIF reports of static analyzers (repeat flag or use comma-separated values)")
	CorrelateCmd.Flags().StringVarP(&correlateOptions.SourceFolder, "source-folder", "s", "", "Folder the SARIF reports were produced for")
	CorrelateCmd.Flags().BoolVar(&correlateOptions.NoSuppressions, "no-suppressions", false, "Skip results suppressed in the SARIF reports")
	CorrelateCmd.Flags().StringVarP(&correlateOptions.OutputPath, "output", "o", "", "Path to the output file or directory (default prints to stdout)")
	CorrelateCmd.Flags().BoolP("help", "h", false, "Show help for correlate command.")
}
