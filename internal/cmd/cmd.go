package cmd

import "strings"

// Mode constants
const (
	ModeArgs  = "args"
	ModeFlags = "flags"

	ModeDynamic = "dynamic"
	ModeStatic  = "static"
)

// DetermineMode tells whether the command input comes from positional arguments or flags.
func DetermineMode(args []string) string {
	if len(args) > 0 {
		return ModeArgs
	}
	return ModeFlags
}

// DetermineQueryMode picks the static mode when a source location or a trace is given,
// and the dynamic mode otherwise.
func DetermineQueryMode(file, trace string) string {
	if strings.TrimSpace(file) != "" || strings.TrimSpace(trace) != "" {
		return ModeStatic
	}
	return ModeDynamic
}
