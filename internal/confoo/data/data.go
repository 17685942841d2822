// Package data is the read side of the schedule. A Loader picks its backing
// Source once, when it is opened: the SQLite store if it exists and holds at
// least one session, otherwise the JSON snapshot. The choice never changes
// for the Loader's lifetime.
package data

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/confoo-planner/confoo/internal/confoo/db"
	"github.com/confoo-planner/confoo/internal/confoo/schema"
	"github.com/confoo-planner/confoo/internal/confoo/snapshot"
)

// ErrNotFound is returned by point reads for unknown slugs.
var ErrNotFound = db.ErrNotFound

// Source names reported by Loader.SourceName.
const (
	SourceDatabase = "SQLite database"
	SourceSnapshot = "JSON snapshot"
)

// Source is the read API shared by the store and the snapshot.
type Source interface {
	Sessions(ctx context.Context) ([]*schema.Session, error)
	SessionsByDay(ctx context.Context, day string) ([]*schema.Session, error)
	Session(ctx context.Context, slug string) (*schema.Session, error)
	Speaker(ctx context.Context, slug string) (*schema.Speaker, error)
	Speakers(ctx context.Context) ([]*schema.Speaker, error)
	Days(ctx context.Context) ([]string, error)
	Tracks(ctx context.Context) ([]string, error)
	SpecialEvents(ctx context.Context) ([]*schema.SpecialEvent, error)
	SessionCount(ctx context.Context) (int, error)
	LastSync(ctx context.Context) (string, error)
}

var _ Source = (*db.DB)(nil)

// Options locate the two possible sources.
type Options struct {
	DBPath       string
	SnapshotPath string
	Logger       *slog.Logger
}

// Loader is a Source bound to one backing store.
type Loader struct {
	Source
	name   string
	db     *db.DB
	logger *slog.Logger
}

// Open chooses the backing source. Store errors are logged and fall through
// to the snapshot; a malformed snapshot is logged and served as empty.
func Open(ctx context.Context, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "data")

	if database := openPopulated(ctx, opts.DBPath, logger); database != nil {
		logger.Debug("using database", "path", opts.DBPath)
		return &Loader{Source: database, name: SourceDatabase, db: database, logger: logger}
	}

	return openSnapshot(opts.SnapshotPath, logger)
}

// OpenSnapshot serves only the snapshot at path, never the store. Readers
// that share a process with a running sync use it: the snapshot changes only
// after a run has finished and been exported.
func OpenSnapshot(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return openSnapshot(path, logger.With("component", "data"))
}

func openSnapshot(path string, logger *slog.Logger) *Loader {
	doc, err := snapshot.Load(path)
	if err != nil {
		logger.Warn("failed to load snapshot, serving empty schedule", "path", path, "error", err)
		doc = &snapshot.Document{}
	}
	logger.Debug("using snapshot", "path", path, "sessions", len(doc.Sessions))
	return &Loader{Source: NewSnapshotSource(doc), name: SourceSnapshot, logger: logger}
}

func openPopulated(ctx context.Context, path string, logger *slog.Logger) *db.DB {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	database, err := db.OpenContext(ctx, path)
	if err != nil {
		logger.Warn("failed to open database", "path", path, "error", err)
		return nil
	}
	n, err := database.SessionCount(ctx)
	if err != nil || n == 0 {
		if err != nil {
			logger.Warn("failed to count sessions", "path", path, "error", err)
		}
		_ = database.Close()
		return nil
	}
	return database
}

// SourceName reports which source backs the loader.
func (l *Loader) SourceName() string {
	return l.name
}

// UsingSnapshot reports whether the loader fell back to the snapshot.
func (l *Loader) UsingSnapshot() bool {
	return l.name == SourceSnapshot
}

// Close releases the store connection, if any.
func (l *Loader) Close() error {
	if l.db == nil {
		return nil
	}
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("failed to close loader: %w", err)
	}
	return nil
}
