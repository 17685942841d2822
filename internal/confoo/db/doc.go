// Package db provides the durable store for the confoo schedule.
//
// # Overview
//
// The store is an embedded SQLite database (ncruces/go-sqlite3) in WAL mode.
// It owns the upsert semantics for speakers, sessions and their track sets,
// special events and sync metadata.
//
// # Schema
//
//   - speakers:       slug PK
//   - sessions:       slug PK, speaker_slug is a soft reference (no FK)
//   - session_tracks: (session_slug, track) PK, position keeps insertion order
//   - special_events: store-assigned id
//   - sync_meta:      key/value
//
// # Usage
//
// Single writes go through a Tx:
//
//	database, err := db.Open("confoo.db")
//	if err != nil {
//	    return err
//	}
//	defer database.Close()
//
//	err = database.RunInTx(ctx, func(ctx context.Context, tx *db.Tx) error {
//	    return tx.UpsertSession(ctx, session)
//	})
//
// Bulk writes use a Batch, which keeps one Tx open across many upserts and
// commits every size items:
//
//	batch := database.NewBatch(db.DefaultBatchSize)
//	defer batch.Rollback()
//	for _, s := range sessions {
//	    if err := batch.UpsertSession(ctx, s); err != nil {
//	        return err
//	    }
//	    if err := batch.Step(); err != nil {
//	        return err
//	    }
//	}
//	return batch.Flush()
//
// # Reads
//
// List reads return empty, non-nil slices on an empty store. Sessions and
// their tracks are read inside one transaction so a concurrent commit cannot
// split them.
package db
