package data

import (
	"context"
	"fmt"
	"sort"

	"github.com/confoo-planner/confoo/internal/confoo/schema"
	"github.com/confoo-planner/confoo/internal/confoo/snapshot"
)

// snapshotSource serves a loaded snapshot from memory with the same ordering
// the store uses.
type snapshotSource struct {
	doc      *snapshot.Document
	sessions map[string]*schema.Session
	speakers map[string]*schema.Speaker
}

// NewSnapshotSource returns a Source over an in-memory snapshot.
func NewSnapshotSource(doc *snapshot.Document) Source {
	s := &snapshotSource{
		doc:      doc,
		sessions: make(map[string]*schema.Session, len(doc.Sessions)),
		speakers: make(map[string]*schema.Speaker, len(doc.Speakers)),
	}

	// Order once so every list read matches the store.
	sort.SliceStable(doc.Sessions, func(i, j int) bool {
		a, b := doc.Sessions[i], doc.Sessions[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.Room < b.Room
	})
	sort.SliceStable(doc.Speakers, func(i, j int) bool {
		a, b := doc.Speakers[i], doc.Speakers[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Slug < b.Slug
	})
	sort.SliceStable(doc.SpecialEvents, func(i, j int) bool {
		a, b := doc.SpecialEvents[i], doc.SpecialEvents[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.StartTime < b.StartTime
	})

	for _, sess := range doc.Sessions {
		if _, dup := s.sessions[sess.Slug]; !dup {
			s.sessions[sess.Slug] = sess
		}
	}
	for _, sp := range doc.Speakers {
		if _, dup := s.speakers[sp.Slug]; !dup {
			s.speakers[sp.Slug] = sp
		}
	}
	return s
}

func (s *snapshotSource) Sessions(context.Context) ([]*schema.Session, error) {
	return append([]*schema.Session{}, s.doc.Sessions...), nil
}

func (s *snapshotSource) SessionsByDay(_ context.Context, day string) ([]*schema.Session, error) {
	out := []*schema.Session{}
	for _, sess := range s.doc.Sessions {
		if sess.Day == day {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *snapshotSource) Session(_ context.Context, slug string) (*schema.Session, error) {
	sess, ok := s.sessions[slug]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", slug, ErrNotFound)
	}
	return sess, nil
}

func (s *snapshotSource) Speaker(_ context.Context, slug string) (*schema.Speaker, error) {
	sp, ok := s.speakers[slug]
	if !ok {
		return nil, fmt.Errorf("speaker %s: %w", slug, ErrNotFound)
	}
	return sp, nil
}

func (s *snapshotSource) Speakers(context.Context) ([]*schema.Speaker, error) {
	return append([]*schema.Speaker{}, s.doc.Speakers...), nil
}

func (s *snapshotSource) Days(context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	days := []string{}
	for _, sess := range s.doc.Sessions {
		if sess.Day == "" {
			continue
		}
		if _, ok := seen[sess.Day]; ok {
			continue
		}
		seen[sess.Day] = struct{}{}
		days = append(days, sess.Day)
	}
	sort.Strings(days)
	return days, nil
}

func (s *snapshotSource) Tracks(context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	tracks := []string{}
	for _, sess := range s.doc.Sessions {
		for _, t := range sess.Tracks {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tracks = append(tracks, t)
		}
	}
	sort.Strings(tracks)
	return tracks, nil
}

func (s *snapshotSource) SpecialEvents(context.Context) ([]*schema.SpecialEvent, error) {
	return append([]*schema.SpecialEvent{}, s.doc.SpecialEvents...), nil
}

func (s *snapshotSource) SessionCount(context.Context) (int, error) {
	return len(s.doc.Sessions), nil
}

// LastSync reports when the snapshot was exported.
func (s *snapshotSource) LastSync(context.Context) (string, error) {
	return s.doc.ExportedAt, nil
}
