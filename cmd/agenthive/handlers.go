package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agenthive"
	"github.com/hupe1980/agenthive/config"
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/observability"
	"github.com/hupe1980/agenthive/store/sqlite"
)

// runHive loads the config, serves metrics when configured and runs the
// orchestrator until all agents stop or the process is interrupted.
func runHive(cmd *cobra.Command, configPath string, maxSweeps int, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if maxSweeps >= 0 {
		cfg.MaxSweeps = maxSweeps
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, func(o *observability.TracingOptions) {
		o.Enabled = cfg.Tracing
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = shutdownTracing(shutdownCtx)
	}()

	hive, err := agenthive.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer hive.Close()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, ReadHeaderTimeout: 5 * time.Second}
		mux := http.NewServeMux()
		mux.Handle("/metrics", hive.Metrics().Handler())
		srv.Handler = mux
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(cmd.ErrOrStderr(), "metrics server: %v\n", err)
			}
		}()
		defer srv.Close()
	}

	err = hive.Run(ctx)
	status := hive.Orchestrator().Status()
	fmt.Fprintf(cmd.OutOrStdout(), "sweeps: %d, running: %d, stopped: %d\n",
		hive.Orchestrator().Sweeps(), status.Running, status.Stopped)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openDB(path string) (*sqlite.Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return sqlite.Open(path)
}

func runAgents(cmd *cobra.Command, dbPath string, jsonOutput bool) error {
	store, err := openDB(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	agents, err := store.Agents(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, agents)
	}
	if len(agents) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No agents found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPASSES\tLAST RUN")
	for _, a := range agents {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", a.AgentID, a.AgentName, a.PassNumber, formatDate(a.LastRunDate))
	}
	return w.Flush()
}

func runPasses(cmd *cobra.Command, dbPath, agentRef string, limit, offset int, jsonOutput bool) error {
	store, err := openDB(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	agentID, err := resolveAgent(cmd.Context(), store, agentRef)
	if err != nil {
		return err
	}
	records, err := store.RunResults(cmd.Context(), agentID, limit, offset)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No passes found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PASS\tDATE\tCALLS\tCONTINUE\tSUMMARY")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%d\t%t\t%s\n",
			r.PassNumber, formatDate(r.RunDate), len(r.Decision.ToolCalls), r.Decision.ShouldContinue, oneLine(r.Summary.Summary))
	}
	return w.Flush()
}

// resolveAgent accepts an agent id or a unique agent name.
func resolveAgent(ctx context.Context, store core.Store, ref string) (string, error) {
	agents, err := store.Agents(ctx)
	if err != nil {
		return "", err
	}
	var byName []string
	for _, a := range agents {
		if a.AgentID == ref {
			return ref, nil
		}
		if a.AgentName == ref {
			byName = append(byName, a.AgentID)
		}
	}
	switch len(byName) {
	case 0:
		return "", fmt.Errorf("agent %q not found", ref)
	case 1:
		return byName[0], nil
	default:
		return "", fmt.Errorf("agent name %q is ambiguous, use one of: %s", ref, strings.Join(byName, ", "))
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
