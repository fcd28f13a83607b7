package match

import (
	"fmt"
	"strings"

	cmdutil "github.com/scan-io-git/scanio-correlator/internal/cmd"
)

// validateMatchArgs validates the arguments provided to the match command for the selected query mode.
func validateMatchArgs(options *RunOptionsMatch, args []string, mode string) error {
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

	switch mode {
	case cmdutil.ModeStatic:
		if options.URL != "" || options.Method != "" {
			issues = append(issues, "'url' and 'method' cannot be combined with 'file' or 'trace'")
		}
		if options.File != "" && options.Line <= 0 {
			missing = append(missing, "line")
		}
	case cmdutil.ModeDynamic:
		if strings.TrimSpace(options.URL) == "" {
			missing = append(missing, "url")
		}
		if options.Line != 0 {
			issues = append(issues, "'line' requires 'file'")
		}
	default:
		issues = append(issues, fmt.Sprintf("invalid match mode: %q", mode))
	}

	if options.Line < 0 {
		issues = append(issues, "'line' cannot be negative")
	}

	if len(missing) > 0 {
		issues = append([]string{fmt.Sprintf("missing required flags: %s", strings.Join(missing, ", "))}, issues...)
	}
	if len(issues) > 0 {
		return fmt.Errorf("%s", strings.Join(issues, "; "))
	}
	return nil
}
