package resolve

import (
	"fmt"
	"strings"

	"github.com/scan-io-git/scanio-correlator/pkg/shared/config"
)

// validateResolveArgs validates the arguments provided to the resolve command.
func validateResolveArgs(options *RunOptionsResolve, correlation config.Correlation, args []string) error {
	if strings.TrimSpace(correlation.ProjectRoot) == "" {
		return fmt.Errorf("missing required flags: project-root")
	}
	for _, hint := range args {
		if strings.TrimSpace(hint) == "" {
			return fmt.Errorf("file hints cannot be empty")
		}
	}
	if options.Pattern != "" && strings.Trim(options.Pattern, "*/") == "" {
		return fmt.Errorf("'pattern' must contain more than wildcards: %q", options.Pattern)
	}
	return nil
}
