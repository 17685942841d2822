package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/confoo-planner/confoo/internal/confoo/loadtest"
	"github.com/confoo-planner/confoo/internal/ui"
)

var loadtestCmd = &cobra.Command{
	Use:     "loadtest",
	GroupID: "advanced",
	Short:   "Measure store read latency under concurrent browsing",
	Long: `Create a throwaway store with a synthetic schedule and measure read latency
with many concurrent readers, the access pattern of the dashboard.

With --during-sync the readers keep running while the schedule is rewritten
in batches, and every session read is checked against what was written.

Examples:
  # 50 readers, 20 queries each, 300 sessions
  confoo loadtest

  # Check read consistency during 5 seconds of rewrites
  confoo loadtest --during-sync 5s
`,
	RunE: runLoadtest,
}

func init() {
	loadtestCmd.Flags().Int("readers", 50, "Number of concurrent readers")
	loadtestCmd.Flags().Int("sessions", 300, "Sessions in the synthetic schedule")
	loadtestCmd.Flags().Int("queries", 20, "Queries per reader")
	loadtestCmd.Flags().Duration("during-sync", 0, "Also verify reads while rewriting for this long")
	loadtestCmd.Flags().Bool("json", false, "Output results as JSON")
	rootCmd.AddCommand(loadtestCmd)
}

func runLoadtest(cmd *cobra.Command, args []string) error {
	readers, _ := cmd.Flags().GetInt("readers")
	sessions, _ := cmd.Flags().GetInt("sessions")
	queries, _ := cmd.Flags().GetInt("queries")
	duringSync, _ := cmd.Flags().GetDuration("during-sync")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if readers <= 0 || sessions <= 0 || queries <= 0 {
		return fmt.Errorf("--readers, --sessions and --queries must be positive")
	}

	dir, err := os.MkdirTemp("", "confoo-loadtest-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	ctx := cmd.Context()
	td, err := loadtest.CreateTestDatabase(ctx, filepath.Join(dir, "loadtest.db"), sessions)
	if err != nil {
		return err
	}
	defer td.Close()

	start := time.Now()
	stats, err := td.RunConcurrentReads(ctx, readers, queries)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	var rewrites int
	if duringSync > 0 {
		rewrites, err = td.VerifyReadsDuringSync(ctx, readers, 10, duringSync)
		if err != nil {
			return fmt.Errorf("inconsistent read during sync: %w", err)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"readers":  readers,
			"sessions": sessions,
			"elapsed":  elapsed.String(),
			"stats":    stats,
			"rewrites": rewrites,
		})
	}

	fmt.Printf("%s %d readers × %d queries over %d sessions in %v\n\n",
		ui.RenderAccent("📊"), readers, queries, sessions, elapsed.Round(time.Millisecond))
	stats.Print(os.Stdout)
	if duringSync > 0 {
		fmt.Printf("\n%s Reads consistent across %d rewrites\n", ui.RenderPass("✓"), rewrites)
	}
	return nil
}
