package parseparam

import (
	"fmt"
	"strings"
)

// validateParseParamArgs requires exactly one trace source.
func validateParseParamArgs(options *RunOptionsParseParam, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected positional arguments: %s", strings.Join(args, ", "))
	}

	trace := strings.TrimSpace(options.Trace) != ""
	report := strings.TrimSpace(options.SarifInput) != ""
	switch {
	case trace && report:
		return fmt.Errorf("'trace' and 'sarif' are mutually exclusive")
	case !trace && !report:
		return fmt.Errorf("missing required flags: trace or sarif")
	case trace && options.SourceFolder != "":
		return fmt.Errorf("'source-folder' is only used with 'sarif'")
	}
	return nil
}
