package db

import (
	"context"
	"fmt"

	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

// DefaultBatchSize is the number of items written between commits.
const DefaultBatchSize = 50

// Batch groups pipeline writes into transactions committed every Size
// items. A crash loses at most the uncommitted batch.
//
// The transaction is opened lazily by the first write after a commit. Step
// marks one item as done and commits when the cadence is reached; Flush
// commits whatever is pending.
type Batch struct {
	db      *DB
	size    int
	tx      *Tx
	pending int
	commits int
}

// NewBatch returns a Batch committing every size items (DefaultBatchSize
// when size <= 0).
func (db *DB) NewBatch(size int) *Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batch{db: db, size: size}
}

func (b *Batch) current(ctx context.Context) (*Tx, error) {
	if b.tx != nil {
		return b.tx, nil
	}
	tx, err := b.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	b.tx = tx
	return tx, nil
}

// ClearAll wipes the store inside the current batch.
func (b *Batch) ClearAll(ctx context.Context) error {
	tx, err := b.current(ctx)
	if err != nil {
		return err
	}
	return tx.ClearAll(ctx)
}

// UpsertSession writes a session and its tracks inside the current batch.
func (b *Batch) UpsertSession(ctx context.Context, s *schema.Session) error {
	tx, err := b.current(ctx)
	if err != nil {
		return err
	}
	return tx.UpsertSession(ctx, s)
}

// UpsertSpeaker writes a speaker inside the current batch.
func (b *Batch) UpsertSpeaker(ctx context.Context, sp *schema.Speaker) error {
	tx, err := b.current(ctx)
	if err != nil {
		return err
	}
	return tx.UpsertSpeaker(ctx, sp)
}

// AppendSpecialEvent writes a special event inside the current batch.
func (b *Batch) AppendSpecialEvent(ctx context.Context, ev *schema.SpecialEvent) error {
	tx, err := b.current(ctx)
	if err != nil {
		return err
	}
	id, err := tx.AppendSpecialEvent(ctx, ev)
	if err != nil {
		return err
	}
	ev.ID = id
	return nil
}

// SetSyncMeta writes a metadata value inside the current batch.
func (b *Batch) SetSyncMeta(ctx context.Context, key, value string) error {
	tx, err := b.current(ctx)
	if err != nil {
		return err
	}
	return tx.SetSyncMeta(ctx, key, value)
}

// Step records one finished item and commits when the batch is full.
func (b *Batch) Step() error {
	b.pending++
	if b.pending < b.size {
		return nil
	}
	return b.Flush()
}

// Flush commits the pending transaction, if any.
func (b *Batch) Flush() error {
	b.pending = 0
	if b.tx == nil {
		return nil
	}
	tx := b.tx
	b.tx = nil
	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("batch commit: %w", err)
	}
	b.commits++
	return nil
}

// Rollback discards the pending transaction, if any.
func (b *Batch) Rollback() {
	if b.tx != nil {
		b.tx.Rollback()
		b.tx = nil
	}
	b.pending = 0
}

// Commits returns the number of successful commits so far.
func (b *Batch) Commits() int {
	return b.commits
}
