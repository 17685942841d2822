package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/confoo-planner/confoo/internal/confoo/daemon"
	"github.com/confoo-planner/confoo/internal/confoo/dashboard"
	"github.com/confoo-planner/confoo/internal/confoo/data"
	"github.com/confoo-planner/confoo/internal/confoo/db"
	"github.com/confoo-planner/confoo/internal/confoo/extract"
	"github.com/confoo-planner/confoo/internal/confoo/ratings"
	"github.com/confoo-planner/confoo/internal/ui"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "advanced",
	Short:   "Run periodic syncs in the foreground",
	Long: `Run the sync pipeline on a schedule until interrupted.

The daemon will:
  1. Sync immediately (unless --no-initial)
  2. Export the JSON snapshot after every successful sync
  3. Repeat every sync_interval, never overlapping two runs

With --dashboard the read-only dashboard is served alongside from the JSON
snapshot, so clients never see a half-rebuilt store. It is reloaded and
clients are notified after every run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := state.cfg
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		database, err := db.OpenContext(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		browser, err := extract.NewChromeBrowser(ctx, extract.ChromeOptions{
			UserAgent: cfg.UserAgent,
			Headless:  cfg.Headless,
			Logger:    state.logger,
		})
		if err != nil {
			return err
		}
		defer browser.Close()

		noInitial, _ := cmd.Flags().GetBool("no-initial")
		dcfg := &daemon.Config{
			Interval:     cfg.SyncInterval,
			SnapshotPath: cfg.SnapshotPath,
			RunOnStart:   !noInitial,
			Logger:       state.logger,
		}

		withDashboard, _ := cmd.Flags().GetBool("dashboard")
		if withDashboard {
			// The store is rebuilt in batches while a run is in flight; the
			// dashboard reads the snapshot, which OnRun reloads after export.
			sources := &sourceSwapper{snapshotOnly: true}
			defer sources.Close()
			src, name := sources.reload(ctx)
			server := newDashboard(src, name)
			if err := server.Start(); err != nil {
				return fmt.Errorf("failed to start dashboard: %w", err)
			}
			defer server.Stop()
			dcfg.OnRun = dashboard.NewHandler(server, sources.reload, state.logger).OnRun
			fmt.Printf("   Dashboard: http://%s\n", server.GetAddr())
		}

		d, err := daemon.New(newSyncer(database, browser), database, dcfg)
		if err != nil {
			return fmt.Errorf("failed to create daemon: %w", err)
		}

		fmt.Printf("%s Starting sync daemon...\n", ui.RenderAccent("🚀"))
		fmt.Printf("   Interval: %s\n", cfg.SyncInterval)
		fmt.Printf("   Store: %s\n", cfg.DBPath)
		fmt.Printf("   Snapshot: %s\n", cfg.SnapshotPath)
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		if err := d.Start(ctx); err != nil {
			return fmt.Errorf("daemon stopped with error: %w", err)
		}
		runs, _, lastErr := d.Status()
		fmt.Printf("%s Daemon stopped after %d runs\n", ui.RenderPass("✓"), runs)
		if lastErr != nil {
			fmt.Printf("%s Last run: %v\n", ui.RenderWarn("⚠"), lastErr)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "advanced",
	Short:   "Serve the schedule over HTTP with live reload notifications",
	Long: `Start the read-only dashboard server.

Endpoints:
  /api/sessions[?day=&track=]  /api/sessions/{slug}
  /api/speakers                /api/speakers/{slug}
  /api/days  /api/tracks  /api/events  /api/status
  /health  /metrics  /ws

WebSocket messages include:
- stats: schedule totals, sent on connect
- snapshot_updated: the snapshot file was replaced; refetch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := state.cfg
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		sources := &sourceSwapper{}
		defer sources.Close()
		src, name := sources.reload(ctx)

		server := newDashboard(src, name)
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start dashboard: %w", err)
		}

		if err := os.MkdirAll(filepath.Dir(cfg.SnapshotPath), 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		fw, err := daemon.NewFileWatcher()
		if err != nil {
			return err
		}
		if err := fw.Start(cfg.SnapshotPath); err != nil {
			return err
		}
		defer fw.Stop()
		go dashboard.NewHandler(server, sources.reload, state.logger).Watch(ctx, fw)

		fmt.Printf("Dashboard server started on http://%s\n", server.GetAddr())
		fmt.Printf("WebSocket endpoint: ws://%s/ws\n", server.GetAddr())
		fmt.Printf("Serving: %s\n", name)
		fmt.Println("\nPress Ctrl+C to stop...")

		<-ctx.Done()

		fmt.Println("\nShutting down dashboard server...")
		if err := server.Stop(); err != nil {
			return fmt.Errorf("error during shutdown: %w", err)
		}
		fmt.Println("Dashboard server stopped")
		return nil
	},
}

func newDashboard(src data.Source, name string) *dashboard.Server {
	cfg := state.cfg
	return dashboard.NewServer(&dashboard.Config{
		Addr:       cfg.DashboardAddr,
		Source:     src,
		SourceName: name,
		Ratings:    ratings.Load(cfg.RatingsPath, state.logger),
		Week:       cfg.Week(),
		Logger:     state.logger,
	})
}

// retireAfter is how long a replaced loader stays open for requests that
// already hold it.
const retireAfter = 10 * time.Second

// sourceSwapper reopens the data loader on demand and closes the one it
// replaces once in-flight requests have had time to finish. With
// snapshotOnly set it never reads the store.
type sourceSwapper struct {
	snapshotOnly bool

	mu      sync.Mutex
	current *data.Loader
}

func (s *sourceSwapper) reload(ctx context.Context) (data.Source, string) {
	var l *data.Loader
	if s.snapshotOnly {
		l = data.OpenSnapshot(state.cfg.SnapshotPath, state.logger)
	} else {
		l = openLoader(ctx)
	}
	s.mu.Lock()
	old := s.current
	s.current = l
	s.mu.Unlock()
	if old != nil {
		time.AfterFunc(retireAfter, func() { _ = old.Close() })
	}
	return l, l.SourceName()
}

func (s *sourceSwapper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.Close()
}

func init() {
	daemonCmd.Flags().Duration("sync-interval", 0, "time between runs")
	daemonCmd.Flags().Bool("no-initial", false, "wait one interval before the first run")
	daemonCmd.Flags().Bool("dashboard", false, "also serve the dashboard")
	daemonCmd.Flags().String("dashboard-addr", "", "dashboard listen address")
	daemonCmd.Flags().Bool("headless", true, "run the browser without a window")

	serveCmd.Flags().String("dashboard-addr", "", "listen address")

	rootCmd.AddCommand(daemonCmd, serveCmd)
}
