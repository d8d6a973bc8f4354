package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecuteReturnsCommandError(t *testing.T) {
	rootCmd.SetArgs([]string{"no-such-subcommand"})
	defer rootCmd.SetArgs(nil)

	err := Execute()
	require.Error(t, err)
}
