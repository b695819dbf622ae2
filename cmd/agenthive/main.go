// Package main provides the agenthive command line.
//
// Run the hive described by a config file until every agent has stopped:
//
//	agenthive run --config agenthive.yaml
//
// Inspect what a previous run persisted:
//
//	agenthive agents --db agents.db
//	agenthive passes --db agents.db --agent scout --limit 5
//
// API keys are usually injected through ${VAR} references in the config file,
// for example api_key: ${OPENAI_API_KEY}.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agenthive",
		Short: "agenthive - autonomous agents taking turns",
		Long: `agenthive runs a population of autonomous agents. Each agent repeatedly
asks a language model what to do, calls tools through apps it loads on demand,
and records a summary of every pass.`,
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		buildRunCmd(),
		buildAgentsCmd(),
		buildPassesCmd(),
	)
	return rootCmd
}
