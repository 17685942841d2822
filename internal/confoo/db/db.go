package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrNotFound is returned by point reads for unknown slugs or keys.
var ErrNotFound = errors.New("not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS speakers (
	slug      TEXT PRIMARY KEY,
	name      TEXT NOT NULL DEFAULT '',
	company   TEXT NOT NULL DEFAULT '',
	country   TEXT NOT NULL DEFAULT '',
	bio       TEXT NOT NULL DEFAULT '',
	photo_url TEXT NOT NULL DEFAULT '',
	website   TEXT NOT NULL DEFAULT '',
	twitter   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sessions (
	slug         TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	abstract     TEXT NOT NULL DEFAULT '',
	day          TEXT NOT NULL DEFAULT '',
	start_time   TEXT NOT NULL DEFAULT '',
	end_time     TEXT NOT NULL DEFAULT '',
	room         TEXT NOT NULL DEFAULT '',
	language     TEXT NOT NULL DEFAULT '',
	level        TEXT NOT NULL DEFAULT '',
	is_keynote   INTEGER NOT NULL DEFAULT 0,
	speaker_slug TEXT NOT NULL DEFAULT '',
	speaker_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS session_tracks (
	session_slug TEXT NOT NULL,
	track        TEXT NOT NULL,
	position     INTEGER NOT NULL,
	PRIMARY KEY (session_slug, track),
	FOREIGN KEY (session_slug) REFERENCES sessions(slug) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS special_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	day        TEXT NOT NULL DEFAULT '',
	start_time TEXT NOT NULL DEFAULT '',
	end_time   TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sync_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_day ON sessions(day, start_time, room);
CREATE INDEX IF NOT EXISTS idx_sessions_speaker ON sessions(speaker_slug);
CREATE INDEX IF NOT EXISTS idx_tracks_track ON session_tracks(track);
CREATE INDEX IF NOT EXISTS idx_speakers_name ON speakers(name);
`

// DB wraps the SQLite connection.
type DB struct {
	conn   *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the store at path and initialises the
// schema. The caller must call Close.
func Open(path string) (*DB, error) {
	return OpenContext(context.Background(), path)
}

// OpenContext is Open with context support.
func OpenContext(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := "file:" + path +
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(wal)"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// One writer at a time; readers share the pool under WAL.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{
		conn:   conn,
		path:   path,
		logger: slog.Default().With("component", "db"),
	}

	if err := db.InitSchemaContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		db.logger.Warn("failed to checkpoint WAL", "error", err)
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.conn = nil
	return nil
}

// InitSchema creates the schema if it does not exist. Idempotent.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext is InitSchema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Begin starts a write transaction.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// RunInTx runs fn inside a transaction, committing on success.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearAll removes every speaker, session, track and special event in one
// transaction. Sync metadata is kept.
func (db *DB) ClearAll(ctx context.Context) error {
	return db.RunInTx(ctx, func(ctx context.Context, tx *Tx) error {
		return tx.ClearAll(ctx)
	})
}

// SetSyncMeta stores a sync metadata value.
func (db *DB) SetSyncMeta(ctx context.Context, key, value string) error {
	return db.RunInTx(ctx, func(ctx context.Context, tx *Tx) error {
		return tx.SetSyncMeta(ctx, key, value)
	})
}

// GetSyncMeta returns a sync metadata value, or ErrNotFound.
func (db *DB) GetSyncMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM sync_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync meta %s: %w", key, err)
	}
	return value, nil
}
