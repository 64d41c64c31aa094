// Package cmd implements the labtel command-line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/skillforge/labtel/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "labtel",
	Short: "Lab telemetry, evidence scoring, and skill mastery",
	Long: "labtel ingests the raw signals a student produces during a hands-on lab,\n" +
		"normalizes them into an append-only event stream, and derives per-step\n" +
		"evidence scores and longitudinal skill mastery from it.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		logging.Setup(level, nil)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(versionCmd)
}
