package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/confoo-planner/confoo/internal/confoo/snapshot"
	confoosync "github.com/confoo-planner/confoo/internal/confoo/sync"
	"github.com/confoo-planner/confoo/internal/metrics"
)

// ErrBusy is returned by RunOnce when a run is already in progress.
var ErrBusy = errors.New("sync already running")

// Config holds configuration for the daemon.
type Config struct {
	// Interval is the time between the end of one run and the start of
	// the next.
	Interval time.Duration

	// SnapshotPath is rewritten after every successful sync. Empty disables
	// the export.
	SnapshotPath string

	// RunOnStart triggers a run as soon as Start is called.
	RunOnStart bool

	// OnRun, when set, is called after every finished run.
	OnRun func(res *confoosync.Result, err error)

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Interval:   6 * time.Hour,
		RunOnStart: true,
		Logger:     slog.Default(),
	}
}

// Daemon periodically syncs the store and exports the snapshot.
type Daemon struct {
	syncer confoosync.Syncer
	reader snapshot.Reader
	config *Config
	logger *slog.Logger

	runMu sync.Mutex

	mu      sync.Mutex
	last    *confoosync.Result
	lastErr error
	runs    int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Daemon. reader is the store the snapshot is exported from.
func New(syncer confoosync.Syncer, reader snapshot.Reader, config *Config) (*Daemon, error) {
	if syncer == nil {
		return nil, fmt.Errorf("syncer cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", config.Interval)
	}
	if config.SnapshotPath != "" && reader == nil {
		return nil, fmt.Errorf("reader cannot be nil when a snapshot path is set")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		syncer: syncer,
		reader: reader,
		config: config,
		logger: logger.With("component", "daemon"),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start runs the schedule loop. It blocks until ctx is cancelled or Stop is
// called.
func (d *Daemon) Start(ctx context.Context) error {
	d.logger.Info("starting daemon", "interval", d.config.Interval, "snapshot", d.config.SnapshotPath)

	d.wg.Add(1)
	go d.loop()

	select {
	case <-ctx.Done():
		d.logger.Info("shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop cancels any in-flight run and waits for the loop to exit.
func (d *Daemon) Stop() error {
	d.cancel()
	d.wg.Wait()
	d.logger.Info("daemon stopped")
	return nil
}

func (d *Daemon) loop() {
	defer d.wg.Done()

	if d.config.RunOnStart {
		d.runLogged()
	}

	// The next run is scheduled from the end of the previous one.
	timer := time.NewTimer(d.config.Interval)
	defer timer.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-timer.C:
			d.runLogged()
			timer.Reset(d.config.Interval)
		}
	}
}

func (d *Daemon) runLogged() {
	if _, err := d.RunOnce(d.ctx); err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Warn("scheduled sync failed", "error", err)
	}
}

// RunOnce performs one sync followed by a snapshot export. It returns ErrBusy
// if another run holds the lock. An empty grid is returned as
// sync.ErrEmptyGrid and skips the export.
func (d *Daemon) RunOnce(ctx context.Context) (*confoosync.Result, error) {
	if !d.runMu.TryLock() {
		return nil, ErrBusy
	}
	defer d.runMu.Unlock()

	res, err := d.syncer.FullSync(ctx)
	if err == nil && d.config.SnapshotPath != "" {
		start := time.Now()
		if _, exportErr := snapshot.Export(ctx, d.reader, d.config.SnapshotPath); exportErr != nil {
			err = fmt.Errorf("failed to export snapshot: %w", exportErr)
		} else {
			metrics.SyncDuration.WithLabelValues(metrics.StageSnapshot).Observe(time.Since(start).Seconds())
			d.logger.Info("snapshot exported", "path", d.config.SnapshotPath)
		}
	}

	d.mu.Lock()
	d.runs++
	d.lastErr = err
	if res != nil {
		d.last = res
	}
	d.mu.Unlock()

	if d.config.OnRun != nil {
		d.config.OnRun(res, err)
	}
	return res, err
}

// Status reports the number of finished runs, the last successful result and
// the error of the most recent run.
func (d *Daemon) Status() (runs int, last *confoosync.Result, lastErr error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runs, d.last, d.lastErr
}
