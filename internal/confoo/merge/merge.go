// Package merge folds schedule grid fragments into one record per session.
//
// A session that spans several grid rows shows up as several fragments with
// the same slug. Merging keeps the earliest start, the latest end and the
// ordered union of tracks; every other field comes from the first fragment
// seen for that slug.
package merge

import (
	"sort"

	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

// GridSession is the merged grid view of one session.
type GridSession struct {
	Slug        string
	Title       string
	Day         string
	StartTime   string
	EndTime     string
	Room        string
	SpeakerSlug string
	SpeakerName string
	IsKeynote   bool
	Tracks      []string
}

// Session converts the grid view into a store record with empty detail
// fields.
func (g *GridSession) Session() *schema.Session {
	return &schema.Session{
		Slug:        g.Slug,
		Title:       g.Title,
		Day:         g.Day,
		StartTime:   g.StartTime,
		EndTime:     g.EndTime,
		Room:        g.Room,
		IsKeynote:   g.IsKeynote,
		SpeakerSlug: g.SpeakerSlug,
		SpeakerName: g.SpeakerName,
		Tracks:      append([]string{}, g.Tracks...),
	}
}

// Result is the output of Grid.
type Result struct {
	Sessions map[string]*GridSession
	// Order lists slugs in first-seen order.
	Order []string
	// SpeakerSlugs is sorted, distinct and never contains "".
	SpeakerSlugs []string
	// SpeakerNames maps a speaker slug to the first display name seen for it.
	SpeakerNames map[string]string
	Events       []schema.SpecialEvent
}

// Len returns the number of merged sessions.
func (r *Result) Len() int {
	return len(r.Order)
}

// Grid merges fragments by slug. Fragments with an empty slug are dropped.
// Events are passed through untouched.
func Grid(fragments []schema.GridFragment, events []schema.SpecialEvent) *Result {
	r := &Result{
		Sessions:     make(map[string]*GridSession),
		SpeakerNames: make(map[string]string),
		Events:       events,
	}
	speakers := make(map[string]struct{})

	for _, f := range fragments {
		if f.Slug == "" {
			continue
		}
		if f.SpeakerSlug != "" {
			speakers[f.SpeakerSlug] = struct{}{}
			if r.SpeakerNames[f.SpeakerSlug] == "" {
				r.SpeakerNames[f.SpeakerSlug] = f.SpeakerName
			}
		}

		g, ok := r.Sessions[f.Slug]
		if !ok {
			r.Sessions[f.Slug] = &GridSession{
				Slug:        f.Slug,
				Title:       f.Title,
				Day:         f.Day,
				StartTime:   f.StartTime,
				EndTime:     f.EndTime,
				Room:        f.Room,
				SpeakerSlug: f.SpeakerSlug,
				SpeakerName: f.SpeakerName,
				IsKeynote:   f.IsKeynote,
				Tracks:      schema.DedupeTracks(f.Tracks),
			}
			r.Order = append(r.Order, f.Slug)
			continue
		}

		g.StartTime = earliest(g.StartTime, f.StartTime)
		g.EndTime = latest(g.EndTime, f.EndTime)
		g.Tracks = schema.AppendTracks(g.Tracks, f.Tracks...)
	}

	r.SpeakerSlugs = make([]string, 0, len(speakers))
	for slug := range speakers {
		r.SpeakerSlugs = append(r.SpeakerSlugs, slug)
	}
	sort.Strings(r.SpeakerSlugs)
	return r
}

// earliest returns the lexicographically smaller time. An empty value never
// wins over a non-empty one.
func earliest(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	case b < a:
		return b
	}
	return a
}

// latest returns the lexicographically larger time. An empty value never
// wins over a non-empty one.
func latest(a, b string) string {
	if b > a {
		return b
	}
	return a
}
