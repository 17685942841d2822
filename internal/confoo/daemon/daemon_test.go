package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/confoo-planner/confoo/internal/confoo/db"
	"github.com/confoo-planner/confoo/internal/confoo/schema"
	"github.com/confoo-planner/confoo/internal/confoo/snapshot"
	confoosync "github.com/confoo-planner/confoo/internal/confoo/sync"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingSyncer counts runs and optionally blocks until released.
type countingSyncer struct {
	calls   atomic.Int32
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *countingSyncer) FullSync(ctx context.Context) (*confoosync.Result, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &confoosync.Result{Sessions: 1}, nil
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		syncer  confoosync.Syncer
		reader  snapshot.Reader
		config  *Config
		wantErr bool
	}{
		{"valid", &countingSyncer{}, nil, &Config{Interval: time.Minute}, false},
		{"nil config uses defaults", &countingSyncer{}, nil, nil, false},
		{"nil syncer", nil, nil, &Config{Interval: time.Minute}, true},
		{"zero interval", &countingSyncer{}, nil, &Config{}, true},
		{"snapshot without reader", &countingSyncer{}, nil, &Config{Interval: time.Minute, SnapshotPath: "x.json"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.syncer, tt.reader, tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDaemon_RunsPeriodically(t *testing.T) {
	s := &countingSyncer{}
	d, err := New(s, nil, &Config{Interval: 10 * time.Millisecond, RunOnStart: true, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for s.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d runs before deadline", s.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}

	runs, last, lastErr := d.Status()
	if runs < 3 || last == nil || lastErr != nil {
		t.Errorf("Status() = %d, %v, %v", runs, last, lastErr)
	}
}

func TestDaemon_RunOnceBusy(t *testing.T) {
	s := &countingSyncer{started: make(chan struct{}, 1), release: make(chan struct{})}
	d, err := New(s, nil, &Config{Interval: time.Hour, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}

	first := make(chan error, 1)
	go func() {
		_, err := d.RunOnce(context.Background())
		first <- err
	}()
	<-s.started

	if _, err := d.RunOnce(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("overlapping RunOnce() err = %v, want ErrBusy", err)
	}

	close(s.release)
	if err := <-first; err != nil {
		t.Errorf("first RunOnce() failed: %v", err)
	}
	if got := s.calls.Load(); got != 1 {
		t.Errorf("FullSync called %d times, want 1", got)
	}
}

func TestDaemon_ExportsSnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	database, err := db.Open(filepath.Join(dir, "confoo.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	err = database.RunInTx(ctx, func(ctx context.Context, tx *db.Tx) error {
		return tx.UpsertSession(ctx, &schema.Session{Slug: "x", Title: "X"})
	})
	if err != nil {
		t.Fatal(err)
	}

	snapPath := filepath.Join(dir, "out", "confoo2026.json")
	d, err := New(&countingSyncer{}, database, &Config{Interval: time.Hour, SnapshotPath: snapPath, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce() failed: %v", err)
	}

	doc, err := snapshot.Load(snapPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Sessions) != 1 || doc.Sessions[0].Slug != "x" {
		t.Errorf("snapshot sessions = %v", doc.Sessions)
	}
}

func TestDaemon_EmptyGridSkipsExport(t *testing.T) {
	dir := t.TempDir()
	database, err := db.Open(filepath.Join(dir, "confoo.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	snapPath := filepath.Join(dir, "confoo2026.json")
	s := &countingSyncer{err: confoosync.ErrEmptyGrid}
	d, err := New(s, database, &Config{Interval: time.Hour, SnapshotPath: snapPath, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := d.RunOnce(context.Background()); !errors.Is(err, confoosync.ErrEmptyGrid) {
		t.Errorf("RunOnce() err = %v, want ErrEmptyGrid", err)
	}
	if _, err := os.Stat(snapPath); !os.IsNotExist(err) {
		t.Error("snapshot written after empty grid")
	}
	if _, _, lastErr := d.Status(); !errors.Is(lastErr, confoosync.ErrEmptyGrid) {
		t.Errorf("Status() lastErr = %v", lastErr)
	}
}

func TestDaemon_StopCancelsRun(t *testing.T) {
	s := &countingSyncer{started: make(chan struct{}, 1), release: make(chan struct{})}
	d, err := New(s, nil, &Config{Interval: time.Hour, RunOnStart: true, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- d.Start(context.Background()) }()
	<-s.started

	if err := d.Stop(); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}

func TestDaemon_OnRunHook(t *testing.T) {
	var got []error
	s := &countingSyncer{err: errors.New("boom")}
	d, err := New(s, nil, &Config{
		Interval: time.Hour,
		Logger:   quietLogger(),
		OnRun:    func(_ *confoosync.Result, err error) { got = append(got, err) },
	})
	if err != nil {
		t.Fatal(err)
	}
	_, _ = d.RunOnce(context.Background())
	s.err = nil
	_, _ = d.RunOnce(context.Background())

	if len(got) != 2 || got[0] == nil || got[1] != nil {
		t.Errorf("OnRun errors = %v, want [boom <nil>]", got)
	}
}
