// Package cli implements the courtwatch command surface: the long-running
// watch daemon plus inspection commands over its state and event log.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "courtwatch",
	Short: "Tennis health-export monitor and AI report daemon",
	Long: `courtwatch watches a Health Auto Export sync directory for new tennis
workouts, generates an AI performance report for each, and pushes the
report through a messaging CLI.

Each workout is analyzed and delivered at most once; the processed-ID
history survives restarts.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("courtwatch %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
