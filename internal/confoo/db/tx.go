package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

// Tx is a write transaction on the store.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. Calling it after Commit is a no-op.
func (t *Tx) Rollback() {
	_ = t.tx.Rollback()
}

// UpsertSpeaker inserts or replaces a speaker keyed by slug.
func (t *Tx) UpsertSpeaker(ctx context.Context, sp *schema.Speaker) error {
	if err := sp.Validate(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx, `
	INSERT INTO speakers (slug, name, company, country, bio, photo_url, website, twitter)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(slug) DO UPDATE SET
		name = excluded.name,
		company = excluded.company,
		country = excluded.country,
		bio = excluded.bio,
		photo_url = excluded.photo_url,
		website = excluded.website,
		twitter = excluded.twitter
	`, sp.Slug, sp.Name, sp.Company, sp.Country, sp.Bio, sp.PhotoURL, sp.Website, sp.Twitter)
	if err != nil {
		return fmt.Errorf("failed to upsert speaker %s: %w", sp.Slug, err)
	}
	return nil
}

// UpsertSession inserts or replaces a session keyed by slug and replaces its
// track set. Tracks are deleted and reinserted in the same transaction, so
// the stored set is exactly s.Tracks.
func (t *Tx) UpsertSession(ctx context.Context, s *schema.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx, `
	INSERT INTO sessions (
		slug, title, abstract, day, start_time, end_time, room,
		language, level, is_keynote, speaker_slug, speaker_name
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(slug) DO UPDATE SET
		title = excluded.title,
		abstract = excluded.abstract,
		day = excluded.day,
		start_time = excluded.start_time,
		end_time = excluded.end_time,
		room = excluded.room,
		language = excluded.language,
		level = excluded.level,
		is_keynote = excluded.is_keynote,
		speaker_slug = excluded.speaker_slug,
		speaker_name = excluded.speaker_name
	`,
		s.Slug, s.Title, s.Abstract, s.Day, s.StartTime, s.EndTime, s.Room,
		s.Language, s.Level, boolToInt(s.IsKeynote), s.SpeakerSlug, s.SpeakerName,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session %s: %w", s.Slug, err)
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM session_tracks WHERE session_slug = ?`, s.Slug); err != nil {
		return fmt.Errorf("failed to clear tracks for %s: %w", s.Slug, err)
	}
	for i, track := range s.Tracks {
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO session_tracks (session_slug, track, position) VALUES (?, ?, ?)`,
			s.Slug, track, i,
		); err != nil {
			return fmt.Errorf("failed to insert track %q for %s: %w", track, s.Slug, err)
		}
	}
	return nil
}

// AppendSpecialEvent inserts a special event and returns its store id.
func (t *Tx) AppendSpecialEvent(ctx context.Context, ev *schema.SpecialEvent) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO special_events (day, start_time, end_time, name) VALUES (?, ?, ?, ?)`,
		ev.Day, ev.StartTime, ev.EndTime, ev.Name,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert special event %q: %w", ev.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read special event id: %w", err)
	}
	return id, nil
}

// SetSyncMeta stores a sync metadata value.
func (t *Tx) SetSyncMeta(ctx context.Context, key, value string) error {
	_, err := t.tx.ExecContext(ctx, `
	INSERT INTO sync_meta (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set sync meta %s: %w", key, err)
	}
	return nil
}

// ClearAll deletes every speaker, session, track and special event.
func (t *Tx) ClearAll(ctx context.Context) error {
	for _, table := range []string{"session_tracks", "sessions", "speakers", "special_events"} {
		if _, err := t.tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
