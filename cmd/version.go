package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"docpilot/internal/config"
)

// Version information (injected at build time via ldflags).
var (
	Version   = "development"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	fmt.Printf("docpilot %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)

	cfg, err := config.Load()
	if err != nil {
		// Version stays useful even with a broken configuration file.
		fmt.Printf("\nConfiguration: unavailable (%v)\n", err)
		return nil
	}

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("  Gateway: %s\n", cfg.GatewayURL)
	fmt.Printf("  Docstore: %s\n", cfg.DocstoreURL)
	fmt.Printf("  Database: %s\n", cfg.Database)
	fmt.Printf("  Agent: %s\n", cfg.AgentID)
	if cfg.DocstoreAPIKey != "" {
		fmt.Println("  API key: configured")
	} else {
		fmt.Println("  API key: not set")
	}
	return nil
}
