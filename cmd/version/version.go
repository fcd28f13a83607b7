package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-correlator/pkg/framework"
	"github.com/scan-io-git/scanio-correlator/pkg/shared"
	"github.com/scan-io-git/scanio-correlator/pkg/shared/config"
)

var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application and supported frameworks",
		Run: func(cmd *cobra.Command, args []string) {
			printVersionInfo(cmd, shared.Versions{
				Version:       CoreVersion,
				GolangVersion: GolangVersion,
				BuildTime:     BuildTime,
			})
		},
	}
}

// printVersionInfo prints the version information and the frameworks endpoints can be declared for.
func printVersionInfo(cmd *cobra.Command, versions shared.Versions) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Core Version: v%s\n", versions.Version)
	fmt.Fprintln(out, "Frameworks:")
	for _, t := range framework.Types() {
		fmt.Fprintf(out, "  %s (%s)\n", t, t.DisplayName())
	}
	fmt.Fprintf(out, "Go Version: %s\n", versions.GolangVersion)
	fmt.Fprintf(out, "Build Time: %s\n", versions.BuildTime)
}
