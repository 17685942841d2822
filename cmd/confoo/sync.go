package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/confoo-planner/confoo/internal/confoo/data"
	"github.com/confoo-planner/confoo/internal/confoo/db"
	"github.com/confoo-planner/confoo/internal/confoo/extract"
	"github.com/confoo-planner/confoo/internal/confoo/snapshot"
	confoosync "github.com/confoo-planner/confoo/internal/confoo/sync"
	"github.com/confoo-planner/confoo/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Scrape the conference site into the local store",
	Long: `Replace the local store with a fresh scrape of the conference website.

This performs a full sync in one headless browser tab:
  1. Loads the schedule grid and merges its slots by session
  2. Visits every session page for abstract, language and level
  3. Visits every speaker page for the profile
  4. Exports the JSON snapshot

Page failures are logged and skipped. An empty grid leaves the store untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := state.cfg
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		database, err := db.OpenContext(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		yes, _ := cmd.Flags().GetBool("yes")
		if ok, err := confirmReplace(ctx, database, yes); err != nil || !ok {
			return err
		}

		browser, err := extract.NewChromeBrowser(ctx, extract.ChromeOptions{
			UserAgent: cfg.UserAgent,
			Headless:  cfg.Headless,
			Logger:    state.logger,
		})
		if err != nil {
			return err
		}
		defer browser.Close()

		syncer := newSyncer(database, browser)

		fmt.Printf("%s Syncing from %s...\n", ui.RenderAccent("🔄"), cfg.Site().ScheduleURL())
		res, err := syncer.FullSync(ctx)
		if errors.Is(err, confoosync.ErrEmptyGrid) {
			fmt.Printf("%s No sessions found in the schedule grid; existing data kept\n", ui.RenderWarn("⚠"))
			return nil
		}
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		printResult(res)

		noExport, _ := cmd.Flags().GetBool("no-export")
		if noExport {
			return nil
		}
		if _, err := snapshot.Export(ctx, database, cfg.SnapshotPath); err != nil {
			return fmt.Errorf("failed to export snapshot: %w", err)
		}
		fmt.Printf("   Snapshot: %s\n", cfg.SnapshotPath)
		return nil
	},
}

// newSyncer wires the browser-backed adapter into a syncer using the
// resolved config.
func newSyncer(database *db.DB, browser extract.Browser) confoosync.Syncer {
	cfg := state.cfg
	adapter := extract.NewAdapter(browser, cfg.Site())
	adapter.GridTimeout = cfg.GridTimeout
	adapter.PageTimeout = cfg.PageTimeout

	return confoosync.New(database, adapter, confoosync.Config{
		Delay:     cfg.PolitenessDelay,
		BatchSize: cfg.BatchSize,
		Logger:    state.logger,
		OnProgress: func(p confoosync.Progress) {
			if p.Total > 0 && p.Done == p.Total {
				fmt.Printf("%s %s %d/%d\n", ui.RenderPass("✓"), p.Stage, p.Done, p.Total)
			}
		},
	})
}

// confirmReplace asks before a sync replaces a populated store. It only
// prompts when stdin is a terminal.
func confirmReplace(ctx context.Context, database *db.DB, yes bool) (bool, error) {
	if yes || !term.IsTerminal(int(os.Stdin.Fd())) {
		return true, nil
	}
	count, err := database.SessionCount(ctx)
	if err != nil {
		return false, err
	}
	if count == 0 {
		return true, nil
	}

	confirmed := false
	err = huh.NewConfirm().
		Title(fmt.Sprintf("Replace the %d stored sessions with a fresh scrape?", count)).
		Affirmative("Sync").
		Negative("Cancel").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	if !confirmed {
		fmt.Println("Sync cancelled")
	}
	return confirmed, nil
}

func printResult(res *confoosync.Result) {
	fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), res.Duration().Round(time.Millisecond))
	fmt.Printf("   Sessions: %d\n", res.Sessions)
	fmt.Printf("   Speakers: %d\n", res.Speakers)
	fmt.Printf("   Special events: %d\n", res.Events)
	if res.FailedDetails > 0 || res.FailedSpeakers > 0 {
		fmt.Printf("%s %d session pages and %d speaker pages failed\n",
			ui.RenderWarn("⚠"), res.FailedDetails, res.FailedSpeakers)
	}
	fmt.Printf("   Run: %s\n", ui.RenderMuted(res.RunID))
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show where data is read from and when it was synced",
	Long: `Display the current data source and its freshness.

Shows:
  - Data source (SQLite database or JSON snapshot)
  - Number of sessions
  - Last sync time
  - Store location and size`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := state.cfg
		ctx := cmd.Context()

		loader := data.Open(ctx, data.Options{DBPath: cfg.DBPath, SnapshotPath: cfg.SnapshotPath, Logger: state.logger})
		defer loader.Close()

		count, err := loader.SessionCount(ctx)
		if err != nil {
			return err
		}
		last, err := loader.LastSync(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("\n%s ConFoo Data Status\n\n", ui.RenderAccent("📊"))
		path := cfg.DBPath
		if loader.UsingSnapshot() {
			path = cfg.SnapshotPath
		}
		fmt.Print(ui.KeyValues(
			[2]string{"Source", loader.SourceName()},
			[2]string{"Location", path},
			[2]string{"Size", fileSize(path)},
			[2]string{"Sessions", fmt.Sprint(count)},
			[2]string{"Last sync", orNever(last)},
		))
		if count == 0 {
			fmt.Printf("\n%s No schedule data yet. Run 'confoo sync' to fetch it\n", ui.RenderWarn("⚠"))
		}
		fmt.Println()
		return nil
	},
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	size := info.Size()
	switch {
	case size > 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size > 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}

func orNever(last string) string {
	if last == "" {
		return "never"
	}
	return last
}

var exportCmd = &cobra.Command{
	Use:     "export [path]",
	GroupID: "sync",
	Short:   "Write the JSON snapshot from the store",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := state.cfg
		path := cfg.SnapshotPath
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(cfg.DBPath); err != nil {
			return fmt.Errorf("no store at %s; run 'confoo sync' first", cfg.DBPath)
		}

		database, err := db.OpenContext(cmd.Context(), cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		doc, err := snapshot.Export(cmd.Context(), database, path)
		if err != nil {
			return err
		}
		fmt.Printf("%s Exported %d sessions, %d speakers and %d special events to %s\n",
			ui.RenderPass("✓"), len(doc.Sessions), len(doc.Speakers), len(doc.SpecialEvents), path)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolP("yes", "y", false, "replace existing data without asking")
	syncCmd.Flags().Bool("no-export", false, "skip the snapshot export")
	syncCmd.Flags().Duration("politeness-delay", 0, "pause between page loads")
	syncCmd.Flags().Int("batch-size", 0, "records per commit")
	syncCmd.Flags().Duration("grid-timeout", 0, "schedule page timeout")
	syncCmd.Flags().Duration("page-timeout", 0, "session and speaker page timeout")
	syncCmd.Flags().Bool("headless", true, "run the browser without a window")
	syncCmd.Flags().String("user-agent", "", "browser user agent")

	rootCmd.AddCommand(syncCmd, statusCmd, exportCmd)
}
