package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "slackbridge",
	Short: "slackbridge — Slack Socket Mode event bridge",
	Long:  "slackbridge keeps a persistent Socket Mode connection open, acknowledges event envelopes, and republishes derived replies via the Slack Web API.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
}
