// Package cmd provides the command-line interface for gh-community-metrics.
// It defines the Cobra command structure, flag handling, and command execution
// for collecting review and triage metrics of a GitHub organization.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is shown in the banner and sent in the User-Agent. Set by the main package.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "community-metrics",
	Short: "Collect review and triage metrics for a GitHub organization",
	Long: `gh community-metrics collects pull requests, reviews, and issues from the
repositories of a GitHub organization and publishes one analytics snapshot for
community dashboards.`,
	Run: func(cmd *cobra.Command, args []string) {
		// fallback message, collection logic is in a subcommand
		fmt.Println("Use `gh community-metrics run` to collect metrics.")
	},
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
