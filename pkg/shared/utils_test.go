package shared

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasFlags(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		flags := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
		flags.String("url", "", "")
		flags.BoolP("help", "h", false, "")
		return flags
	}

	flags := newFlags()
	require.NoError(t, flags.Parse(nil))
	assert.False(t, HasFlags(flags))

	flags = newFlags()
	require.NoError(t, flags.Parse([]string{"-h"}))
	assert.False(t, HasFlags(flags))

	flags = newFlags()
	require.NoError(t, flags.Parse([]string{"--url", "/owners"}))
	assert.True(t, HasFlags(flags))

	assert.False(t, HasFlags(nil))
}
