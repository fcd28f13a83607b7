package match

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-correlator/internal/project"
	"github.com/scan-io-git/scanio-correlator/pkg/correlation"
	"github.com/scan-io-git/scanio-correlator/pkg/endpoint"
	"github.com/scan-io-git/scanio-correlator/pkg/shared"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/config"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/errors"

	cmdutil "github.com/scan-io-git/scanio-correlator/internal/cmd"
)

// RunOptionsMatch holds the arguments for the match command.
type RunOptionsMatch struct {
	Correlation  cmdutil.CorrelationOptions `json:"correlation"`
	Declarations []string                   `json:"declarations"`
	URL          string                     `json:"url,omitempty"`
	Method       string                     `json:"method,omitempty"`
	File         string                     `json:"file,omitempty"`
	Line         int                        `json:"line,omitempty"`
	Parameter    string                     `json:"parameter,omitempty"`
	Trace        string                     `json:"trace,omitempty"`
	All          bool                       `json:"all,omitempty"`
	OutputPath   string                     `json:"output_path,omitempty"`
}

// MatchResult lists the endpoints a query resolved to, best candidate first.
type MatchResult struct {
	Mode      string                     `json:"mode"`
	Framework string                     `json:"framework"`
	Parameter string                     `json:"parameter,omitempty"`
	Endpoints []*correlation.EndpointRef `json:"endpoints"`
}

var (
	AppConfig    *config.Config
	logger       hclog.Logger
	matchOptions RunOptionsMatch

	exampleMatchUsage = `  # Find the endpoint serving an observed request
  scanio-correlator match --declarations endpoints.yaml --project-root /home/dev/petclinic --dynamic-root /petclinic --url /petclinic/owners/42/edit --method POST

  # Find the endpoint enclosing a source line
  scanio-correlator match --declarations endpoints.yaml --project-root /home/dev/petclinic --file src/main/java/org/petclinic/web/OwnerController.java --line 87

  # Find the endpoint of a data-flow trace and the parameter feeding it, listing every candidate
  scanio-correlator match --declarations endpoints.yaml --project-root /home/dev/petclinic --trace trace.yaml --all`

	MatchCmd = &cobra.Command{
		Use:                   "match --declarations PATH [--url URL [--method METHOD] | --file PATH --line N | --trace PATH] [--parameter NAME] [--all] [--output PATH]",
		Short:                 "Find the declared endpoint of a URL, a source location or a data-flow trace",
		Example:               exampleMatchUsage,
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		RunE:                  runMatchCommand,
	}
)

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runMatchCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	mode := cmdutil.DetermineQueryMode(matchOptions.File, matchOptions.Trace)
	if err := validateMatchArgs(&matchOptions, args, mode); err != nil {
		logger.Error("invalid command arguments", "error", err)
		return errors.NewCommandError(matchOptions, nil, fmt.Errorf("invalid arguments: %w", err), 1)
	}

	correlationSettings, err := cmdutil.ResolveCorrelation(AppConfig, matchOptions.Correlation)
	if err != nil {
		logger.Error("invalid correlation settings", "error", err)
		return errors.NewCommandError(matchOptions, nil, fmt.Errorf("invalid correlation settings: %w", err), 1)
	}

	p, err := project.Load(project.Options{
		Correlation:  correlationSettings,
		Declarations: matchOptions.Declarations,
	}, logger)
	if err != nil {
		logger.Error("failed to load project", "error", err)
		return errors.NewCommandError(matchOptions, nil, fmt.Errorf("failed to load project: %w", err), 2)
	}

	result, err := matchQuery(p, &matchOptions, mode)
	if err != nil {
		logger.Error("failed to match the query", "error", err)
		return errors.NewCommandError(matchOptions, nil, err, 2)
	}
	if len(result.Endpoints) == 0 {
		logger.Warn("no endpoint matched the query", "mode", mode)
	}

	if err := shared.WriteResult(cmd.OutOrStdout(), matchOptions.OutputPath, "match.json", result, logger); err != nil {
		return errors.NewCommandError(matchOptions, result, err, 2)
	}
	return nil
}

// matchQuery builds the query described by options and runs it against the project.
// Static queries without an explicit parameter get one from the framework parser.
func matchQuery(p *project.Project, options *RunOptionsMatch, mode string) (MatchResult, error) {
	result := MatchResult{Mode: mode, Framework: string(p.Framework), Endpoints: []*correlation.EndpointRef{}}

	b := endpoint.NewQueryBuilder().WithParameter(options.Parameter)
	switch mode {
	case cmdutil.ModeStatic:
		if options.File != "" {
			b.WithStaticPath(p.Anchor(options.File)).WithLineNumber(options.Line)
		}
		if options.Trace != "" {
			trace, err := endpoint.LoadTrace(options.Trace)
			if err != nil {
				return result, err
			}
			for _, point := range trace {
				point.File = p.Anchor(point.File)
			}
			b.WithCodePoints(trace)
		}
	default:
		b.WithDynamicPath(options.URL).WithHTTPMethod(options.Method)
	}

	q := b.Build()
	parameter := options.Parameter
	if parameter == "" && mode == cmdutil.ModeStatic && p.Parser != nil {
		if parsed, ok := p.Parser.Parse(q); ok {
			parameter = parsed
			q = b.WithParameter(parsed).Build()
		}
	}
	result.Parameter = parameter

	if options.All {
		for _, e := range p.Matcher.FindAllEndpoints(q) {
			result.Endpoints = append(result.Endpoints, correlation.NewEndpointRef(e))
		}
		return result, nil
	}
	if e, ok := p.Matcher.FindEndpoint(q); ok {
		result.Endpoints = append(result.Endpoints, correlation.NewEndpointRef(e))
	}
	return result, nil
}

func init() {
	cmdutil.AddCorrelationFlags(MatchCmd.Flags(), &matchOptions.Correlation)
	MatchCmd.Flags().StringSliceVarP(&matchOptions.Declarations, "declarations", "d", nil, "Endpoint declaration files in YAML or JSON (repeat flag or use comma-separated values)")
	MatchCmd.Flags().StringVarP(&matchOptions.URL, "url", "u", "", "Observed request URL")
	MatchCmd.Flags().StringVarP(&matchOptions.Method, "method", "m", "", "HTTP method of the observed request")
	MatchCmd.Flags().StringVar(&matchOptions.File, "file", "", "Source file of a static finding, relative to the project root or absolute")
	MatchCmd.Flags().IntVarP(&matchOptions.Line, "line", "l", 0, "Line of the static finding in --file")
	MatchCmd.Flags().StringVarP(&matchOptions.Trace, "trace", "t", "", "Data-flow trace file in YAML or JSON")
	MatchCmd.Flags().StringVarP(&matchOptions.Parameter, "parameter", "p", "", "Parameter preferred when several endpoints match")
	MatchCmd.Flags().BoolVarP(&matchOptions.All, "all", "a", false, "Print every matching endpoint instead of the best one")
	MatchCmd.Flags().StringVarP(&matchOptions.OutputPath, "output", "o", "", "Path to the output file or directory (default prints to stdout)")
	MatchCmd.Flags().BoolP("help", "h", false, "Show help for match command.")
}
