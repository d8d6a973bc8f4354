package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "events-service",
	Short: "Campus event discovery and RSVP service",
	Long: `Campus events service: event publishing, RSVP tracking, tag follows,
reminder dispatch and external calendar sync.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}
