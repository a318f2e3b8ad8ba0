// Package cmd provides CLI commands for docpilot.
//
// Commands:
//   - chat: Interactive documentation chat with a Bubble Tea TUI
//   - serve: HTTP chat gateway in front of the document database
//   - version: Build and configuration information
//
// Signal handling and graceful shutdown are implemented for all
// commands via context cancellation.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docpilot",
	Short: "docpilot - chat with your documentation from the terminal",
	Long: `docpilot answers questions about a documentation corpus stored in a
document database, citing the pages each answer is grounded on.

Running docpilot without arguments starts the interactive chat.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute is the main entry point for the docpilot CLI.
func Execute() error {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	return rootCmd.Execute()
}
