package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

const sessionColumns = `slug, title, abstract, day, start_time, end_time, room,
	language, level, is_keynote, speaker_slug, speaker_name`

const speakerColumns = `slug, name, company, country, bio, photo_url, website, twitter`

type rowScanner interface {
	Scan(dest ...any) error
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// readTx runs fn in a transaction so a session and its tracks come from the
// same commit.
func (db *DB) readTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin read: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	return fn(tx)
}

func scanSession(row rowScanner) (*schema.Session, error) {
	var s schema.Session
	var keynote int
	if err := row.Scan(
		&s.Slug, &s.Title, &s.Abstract, &s.Day, &s.StartTime, &s.EndTime, &s.Room,
		&s.Language, &s.Level, &keynote, &s.SpeakerSlug, &s.SpeakerName,
	); err != nil {
		return nil, err
	}
	s.IsKeynote = keynote != 0
	s.Tracks = []string{}
	return &s, nil
}

func scanSpeaker(row rowScanner) (*schema.Speaker, error) {
	var sp schema.Speaker
	if err := row.Scan(
		&sp.Slug, &sp.Name, &sp.Company, &sp.Country, &sp.Bio, &sp.PhotoURL, &sp.Website, &sp.Twitter,
	); err != nil {
		return nil, err
	}
	return &sp, nil
}

// Sessions returns every session ordered by day, start time and room.
func (db *DB) Sessions(ctx context.Context) ([]*schema.Session, error) {
	return db.querySessions(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY day, start_time, room`)
}

// SessionsByDay returns the sessions of one day ordered by start time and room.
func (db *DB) SessionsByDay(ctx context.Context, day string) ([]*schema.Session, error) {
	return db.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE day = ? ORDER BY start_time, room`, day)
}

// Session returns one session by slug, or ErrNotFound.
func (db *DB) Session(ctx context.Context, slug string) (*schema.Session, error) {
	var s *schema.Session
	err := db.readTx(ctx, func(q querier) error {
		row := q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE slug = ?`, slug)
		var err error
		s, err = scanSession(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("session %s: %w", slug, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get session %s: %w", slug, err)
		}
		tracks, err := tracksFor(ctx, q, []string{slug})
		if err != nil {
			return err
		}
		if t, ok := tracks[slug]; ok {
			s.Tracks = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) querySessions(ctx context.Context, query string, args ...any) ([]*schema.Session, error) {
	var sessions []*schema.Session
	err := db.readTx(ctx, func(q querier) error {
		var err error
		sessions, err = querySessions(ctx, q, query, args...)
		return err
	})
	return sessions, err
}

func querySessions(ctx context.Context, q querier, query string, args ...any) ([]*schema.Session, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*schema.Session{}
	var slugs []string
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
		slugs = append(slugs, s.Slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	rows.Close()

	tracks, err := tracksFor(ctx, q, slugs)
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		if t, ok := tracks[s.Slug]; ok {
			s.Tracks = t
		}
	}
	return sessions, nil
}

// tracksFor loads the ordered track lists of the given sessions in one query.
func tracksFor(ctx context.Context, q querier, slugs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(slugs))
	if len(slugs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(slugs)), ",")
	args := make([]any, len(slugs))
	for i, s := range slugs {
		args[i] = s
	}
	rows, err := q.QueryContext(ctx, `
	SELECT session_slug, track FROM session_tracks
	WHERE session_slug IN (`+placeholders+`)
	ORDER BY session_slug, position
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slug, track string
		if err := rows.Scan(&slug, &track); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		out[slug] = append(out[slug], track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracks: %w", err)
	}
	return out, nil
}

// Speaker returns one speaker by slug, or ErrNotFound.
func (db *DB) Speaker(ctx context.Context, slug string) (*schema.Speaker, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+speakerColumns+` FROM speakers WHERE slug = ?`, slug)
	sp, err := scanSpeaker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("speaker %s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get speaker %s: %w", slug, err)
	}
	return sp, nil
}

// Speakers returns every speaker ordered by name.
func (db *DB) Speakers(ctx context.Context) ([]*schema.Speaker, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+speakerColumns+` FROM speakers ORDER BY name, slug`)
	if err != nil {
		return nil, fmt.Errorf("failed to query speakers: %w", err)
	}
	defer rows.Close()

	speakers := []*schema.Speaker{}
	for rows.Next() {
		sp, err := scanSpeaker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan speaker: %w", err)
		}
		speakers = append(speakers, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating speakers: %w", err)
	}
	return speakers, nil
}

// Days returns the distinct non-empty day labels in lexical order.
func (db *DB) Days(ctx context.Context) ([]string, error) {
	return db.queryStrings(ctx, `SELECT DISTINCT day FROM sessions WHERE day != '' ORDER BY day`)
}

// Tracks returns the distinct track labels in lexical order.
func (db *DB) Tracks(ctx context.Context) ([]string, error) {
	return db.queryStrings(ctx, `SELECT DISTINCT track FROM session_tracks ORDER BY track`)
}

func (db *DB) queryStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SpecialEvents returns every special event ordered by day and start time.
func (db *DB) SpecialEvents(ctx context.Context) ([]*schema.SpecialEvent, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, day, start_time, end_time, name FROM special_events ORDER BY day, start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query special events: %w", err)
	}
	defer rows.Close()

	events := []*schema.SpecialEvent{}
	for rows.Next() {
		var ev schema.SpecialEvent
		if err := rows.Scan(&ev.ID, &ev.Day, &ev.StartTime, &ev.EndTime, &ev.Name); err != nil {
			return nil, fmt.Errorf("failed to scan special event: %w", err)
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating special events: %w", err)
	}
	return events, nil
}

// SessionCount returns the number of stored sessions.
func (db *DB) SessionCount(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get session count: %w", err)
	}
	return count, nil
}

// LastSync returns the last_sync metadata value, or "" if no sync has
// completed.
func (db *DB) LastSync(ctx context.Context) (string, error) {
	v, err := db.GetSyncMeta(ctx, schema.MetaLastSync)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
