package main

import "github.com/spf13/cobra"

const defaultConfigPath = "agenthive.yaml"

func buildRunCmd() *cobra.Command {
	var (
		configPath string
		maxSweeps  int
		debug      bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured agents until they stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHive(cmd, configPath, maxSweeps, debug)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to YAML configuration file")
	cmd.Flags().IntVar(&maxSweeps, "max-sweeps", -1, "Override max_sweeps from the config (0 is unbounded)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log at debug level")
	return cmd
}

func buildAgentsCmd() *cobra.Command {
	var (
		dbPath     string
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List persisted agent checkpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgents(cmd, dbPath, jsonOutput)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "agents.db", "Path to the sqlite database")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	return cmd
}

func buildPassesCmd() *cobra.Command {
	var (
		dbPath     string
		agentRef   string
		limit      int
		offset     int
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "passes",
		Short: "Show an agent's pass records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPasses(cmd, dbPath, agentRef, limit, offset, jsonOutput)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "agents.db", "Path to the sqlite database")
	cmd.Flags().StringVar(&agentRef, "agent", "", "Agent id or name")
	cmd.Flags().IntVar(&limit, "limit", 10, "Max number of passes to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of newest passes to skip")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print full pass records as JSON")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}
