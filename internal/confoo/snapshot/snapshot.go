// Package snapshot mirrors the store into a single JSON document and reads it
// back. The snapshot is the offline fallback when no populated store exists.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

// Document is the on-disk snapshot format.
type Document struct {
	ExportedAt    string                 `json:"exported_at"`
	Sessions      []*schema.Session      `json:"sessions"`
	Speakers      []*schema.Speaker      `json:"speakers"`
	SpecialEvents []*schema.SpecialEvent `json:"special_events"`
}

// Reader is the subset of the store read API needed to export.
type Reader interface {
	Sessions(ctx context.Context) ([]*schema.Session, error)
	Speakers(ctx context.Context) ([]*schema.Speaker, error)
	SpecialEvents(ctx context.Context) ([]*schema.SpecialEvent, error)
}

// Export reads the full dataset from r and writes it to path. The file is
// written to path+".tmp" and renamed into place, so readers never see a
// partial document.
func Export(ctx context.Context, r Reader, path string) (*Document, error) {
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	speakers, err := r.Speakers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read speakers: %w", err)
	}
	events, err := r.SpecialEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read special events: %w", err)
	}

	doc := &Document{
		ExportedAt:    time.Now().Format(time.RFC3339),
		Sessions:      nonNil(sessions),
		Speakers:      nonNil(speakers),
		SpecialEvents: nonNil(events),
	}
	if err := Write(doc, path); err != nil {
		return nil, err
	}
	return doc, nil
}

// Write encodes doc to path atomically.
func Write(doc *Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot at path. A missing file yields an empty document
// and no error; a malformed file is an error.
//
// Track labels holding several tab-separated tracks are split, trimmed and
// deduplicated. Missing fields decode as empty strings, and records without a
// slug are dropped.
func Load(path string) (*Document, error) {
	// #nosec G304 - path comes from configuration
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid snapshot %s: %w", path, err)
	}

	sessions := make([]*schema.Session, 0, len(doc.Sessions))
	for _, s := range doc.Sessions {
		if s == nil || s.Slug == "" {
			continue
		}
		s.Tracks = schema.SplitTrackArtifacts(s.Tracks)
		sessions = append(sessions, s)
	}
	speakers := make([]*schema.Speaker, 0, len(doc.Speakers))
	for _, sp := range doc.Speakers {
		if sp == nil || sp.Slug == "" {
			continue
		}
		speakers = append(speakers, sp)
	}
	events := make([]*schema.SpecialEvent, 0, len(doc.SpecialEvents))
	for i, ev := range doc.SpecialEvents {
		if ev == nil {
			continue
		}
		ev.ID = int64(i + 1)
		events = append(events, ev)
	}

	doc.Sessions = sessions
	doc.Speakers = speakers
	doc.SpecialEvents = events
	return &doc, nil
}

func empty() *Document {
	return &Document{
		Sessions:      []*schema.Session{},
		Speakers:      []*schema.Speaker{},
		SpecialEvents: []*schema.SpecialEvent{},
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
