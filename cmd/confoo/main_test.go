package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/confoo-planner/confoo/internal/config"
	"github.com/confoo-planner/confoo/internal/confoo/data"
	"github.com/confoo-planner/confoo/internal/confoo/db"
	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{"daemon", "days", "export", "loadtest", "serve", "session", "sessions", "speaker", "status", "sync", "tracks"}
	var got []string
	for _, c := range rootCmd.Commands() {
		if c.GroupID != "" {
			got = append(got, c.Name())
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("grouped commands (-want +got):\n%s", diff)
	}
}

func TestWithTrack(t *testing.T) {
	sessions := []*schema.Session{
		{Slug: "a", Tracks: []string{"AI", "Cloud"}},
		{Slug: "b", Tracks: []string{"Web"}},
		{Slug: "c", Tracks: []string{}},
	}
	got := withTrack(sessions, "cloud")
	if len(got) != 1 || got[0].Slug != "a" {
		t.Errorf("withTrack(cloud) = %v", got)
	}
}

func TestSourceSwapper_SnapshotOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := &config.Config{
		DBPath:       filepath.Join(dir, "confoo.db"),
		SnapshotPath: filepath.Join(dir, "confoo2026.json"),
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	err = database.RunInTx(ctx, func(ctx context.Context, tx *db.Tx) error {
		return tx.UpsertSession(ctx, &schema.Session{Slug: "mid-sync", Title: "Half written"})
	})
	database.Close()
	if err != nil {
		t.Fatal(err)
	}

	prev := *state
	t.Cleanup(func() { *state = prev })
	state.cfg = cfg
	state.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name         string
		snapshotOnly bool
		want         string
	}{
		{"daemon dashboard", true, data.SourceSnapshot},
		{"serve", false, data.SourceDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &sourceSwapper{snapshotOnly: tt.snapshotOnly}
			defer s.Close()
			src, name := s.reload(ctx)
			if name != tt.want {
				t.Errorf("reload() source = %q, want %q", name, tt.want)
			}
			n, _ := src.SessionCount(ctx)
			if tt.snapshotOnly && n != 0 {
				t.Errorf("snapshot-only source served %d store sessions", n)
			}
		})
	}
}
