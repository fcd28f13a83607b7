package shared

import (
	"github.com/spf13/pflag"
)

// HasFlags reports whether any flag was explicitly set on the command line.
// The help flag does not count.
func HasFlags(flags *pflag.FlagSet) bool {
	if flags == nil {
		return false
	}
	changed := false
	flags.Visit(func(f *pflag.Flag) {
		if f.Name != "help" {
			changed = true
		}
	})
	return changed
}
