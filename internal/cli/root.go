package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hookwatch",
	Short: "Pre-tool-use safety hook for AI coding assistants",
	Long: "Classifies proposed tool calls (shell commands, file writes) as allow, warn or block\n" +
		"against ordered regex rule tables, before the assistant executes them.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
