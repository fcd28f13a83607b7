package correlate

import (
	"fmt"
	"strings"
)

// validateCorrelateArgs validates the arguments provided to the correlate command.
func validateCorrelateArgs(options *RunOptionsCorrelate, args []string) error {
	var (
		missing []string
		issues  []string
	)

	if len(args) > 0 {
		issues = append(issues, fmt.Sprintf("unexpected positional arguments: %s", strings.Join(args, ", ")))
	}
	if len(options.Declarations) == 0 {
		missing = append(missing, "declarations")
	}
	if len(options.Findings) == 0 && len(options.SarifInputs) == 0 {
		missing = append(missing, "findings or sarif")
	}
	if options.NoSuppressions && len(options.SarifInputs) == 0 {
		issues = append(issues, "'no-suppressions' requires 'sarif'")
	}

	if len(missing) > 0 {
		issues = append([]string{fmt.Sprintf("missing required flags: %s", strings.Join(missing, ", "))}, issues...)
	}
	if len(issues) > 0 {
		return fmt.Errorf("%s", strings.Join(issues, "; "))
	}
	return nil
}
