package parseparam

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-correlator/internal/project"
	"github.com/scan-io-git/scanio-correlator/internal/sarif"
	"github.com/scan-io-git/scanio-correlator/pkg/endpoint"
	"github.com/scan-io-git/scanio-correlator/pkg/shared"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/config"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/errors"

	cmdutil "github.com/scan-io-git/scanio-correlator/internal/cmd"
)

// RunOptionsParseParam holds the arguments for the parse-param command.
type RunOptionsParseParam struct {
	Correlation    cmdutil.CorrelationOptions `json:"correlation"`
	Trace          string                     `json:"trace,omitempty"`
	SarifInput     string                     `json:"sarif,omitempty"`
	SourceFolder   string                     `json:"source_folder,omitempty"`
	NoSuppressions bool                       `json:"no_suppressions,omitempty"`
	OutputPath     string                     `json:"output_path,omitempty"`
}

// ParameterResult is the parameter recovered from one trace.
type ParameterResult struct {
	RuleID    string `json:"rule_id,omitempty"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Found     bool   `json:"found"`
}

// ParseParamResult lists the parameters recovered for the framework.
type ParseParamResult struct {
	Framework string            `json:"framework"`
	Results   []ParameterResult `json:"results"`
}

var (
	AppConfig         *config.Config
	logger            hclog.Logger
	parseParamOptions RunOptionsParseParam

	exampleParseParamUsage = `  # Recover the request parameter of a Spring MVC data-flow trace
  scanio-correlator parse-param --framework SPRING_MVC --trace trace.yaml

  # Recover the parameter of every finding of a SARIF report
  scanio-correlator parse-param --sarif semgrep.sarif --source-folder /home/dev/petclinic`

	ParseParamCmd = &cobra.Command{
		Use:                   "parse-param (--trace PATH | --sarif PATH [--source-folder PATH]) [--framework NAME] [--output PATH]",
		Short:                 "Recover the HTTP parameter feeding a static finding from its data-flow trace",
		Example:               exampleParseParamUsage,
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		RunE:                  runParseParamCommand,
	}
)

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runParseParamCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	if err := validateParseParamArgs(&parseParamOptions, args); err != nil {
		logger.Error("invalid command arguments", "error", err)
		return errors.NewCommandError(parseParamOptions, nil, fmt.Errorf("invalid arguments: %w", err), 1)
	}

	correlationSettings, err := cmdutil.ResolveCorrelation(AppConfig, parseParamOptions.Correlation)
	if err != nil {
		logger.Error("invalid correlation settings", "error", err)
		return errors.NewCommandError(parseParamOptions, nil, fmt.Errorf("invalid correlation settings: %w", err), 1)
	}

	p, err := project.Load(project.Options{
		Correlation:  correlationSettings,
		SourceFolder: parseParamOptions.SourceFolder,
	}, logger)
	if err != nil {
		logger.Error("failed to load project", "error", err)
		return errors.NewCommandError(parseParamOptions, nil, fmt.Errorf("failed to load project: %w", err), 2)
	}

	result, err := parseParameters(p, &parseParamOptions)
	if err != nil {
		logger.Error("failed to parse parameters", "error", err)
		return errors.NewCommandError(parseParamOptions, nil, err, 2)
	}

	if err := shared.WriteResult(cmd.OutOrStdout(), parseParamOptions.OutputPath, "parameters.json", result, logger); err != nil {
		return errors.NewCommandError(parseParamOptions, result, err, 2)
	}
	return nil
}

// parseParameters runs the framework parser over the trace file or over every finding of the SARIF report.
func parseParameters(p *project.Project, options *RunOptionsParseParam) (ParseParamResult, error) {
	result := ParseParamResult{Framework: string(p.Framework), Results: []ParameterResult{}}
	if p.Parser == nil {
		return result, fmt.Errorf("framework %q has no parameter parser, use --framework SPRING_MVC or JSP", p.Framework)
	}

	if options.Trace != "" {
		trace, err := endpoint.LoadTrace(options.Trace)
		if err != nil {
			return result, err
		}
		r := ParameterResult{}
		if len(trace) > 0 {
			r.File, r.Line = trace[0].File, trace[0].Line
		}
		r.Parameter, r.Found = p.Parser.Parse(endpoint.NewQueryBuilder().WithCodePoints(trace).Build())
		result.Results = append(result.Results, r)
		return result, nil
	}

	report, err := sarif.ReadReport(options.SarifInput, logger, options.SourceFolder, options.NoSuppressions)
	if err != nil {
		return result, err
	}
	report.RemoveDataflowDuplicates()

	for _, f := range report.StaticFindings(p.Metadata) {
		r := ParameterResult{RuleID: f.RuleID, File: f.File, Line: f.Line}
		r.Parameter, r.Found = p.Parser.Parse(endpoint.NewQueryBuilder().WithCodePoints(f.CodePoints).Build())
		if !r.Found {
			logger.Debug("no parameter found for finding", "rule", f.RuleID, "file", f.File, "line", f.Line)
		}
		result.Results = append(result.Results, r)
	}
	return result, nil
}

func init() {
	cmdutil.AddCorrelationFlags(ParseParamCmd.Flags(), &parseParamOptions.Correlation)
	ParseParamCmd.Flags().StringVarP(&parseParamOptions.Trace, "trace", "t", "", "Data-flow trace file in YAML or JSON")
	ParseParamCmd.Flags().StringVarP(&parseParamOptions.SarifInput, "sarif", "i", "", "Path to a SARIF report whose findings carry data-flow traces")
	ParseParamCmd.Flags().StringVarP(&parseParamOptions.SourceFolder, "source-folder", "s", "", "Folder the SARIF report was produced for, used to read the traced lines")
	ParseParamCmd.Flags().BoolVar(&parseParamOptions.NoSuppressions, "no-suppressions", false, "Skip results suppressed in the SARIF report")
	ParseParamCmd.Flags().StringVarP(&parseParamOptions.OutputPath, "output", "o", "", "Path to the output file or directory (default prints to stdout)")
	ParseParamCmd.Flags().BoolP("help", "h", false, "Show help for parse-param command.")
}
