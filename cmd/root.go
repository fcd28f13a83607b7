package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-correlator/cmd/correlate"
	"github.com/scan-io-git/scanio-correlator/cmd/match"
	parseparam "github.com/scan-io-git/scanio-correlator/cmd/parse-param"
	"github.com/scan-io-git/scanio-correlator/cmd/resolve"
	"github.com/scan-io-git/scanio-correlator/cmd/version"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/config"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/errors"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/logger"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "scanio-correlator [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "Scanio correlator links static and dynamic findings through the endpoints they hit.",
		Long: `Scanio correlator maps SAST findings (source locations and data-flow traces) and
	DAST findings (observed URLs and parameters) to the endpoints declared by a web application,
	and groups the findings that describe the same vulnerable endpoint and parameter.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(resolve.ResolveCmd)
	rootCmd.AddCommand(match.MatchCmd)
	rootCmd.AddCommand(parseparam.ParseParamCmd)
	rootCmd.AddCommand(correlate.CorrelateCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		var cmdErr *errors.CommandError
		if stderrors.As(err, &cmdErr) {
			return cmdErr.ExitCode
		}
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	AppConfig, err = config.LoadConfig(config.SetThen(cfgFile, config.DefaultConfigPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing config file function is crashed - %v \n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	version.Init(AppConfig)
	resolve.Init(AppConfig, logger.NewLogger(AppConfig, "core-resolve"))
	match.Init(AppConfig, logger.NewLogger(AppConfig, "core-match"))
	parseparam.Init(AppConfig, logger.NewLogger(AppConfig, "core-parse-param"))
	correlate.Init(AppConfig, logger.NewLogger(AppConfig, "core-correlate"))
}
