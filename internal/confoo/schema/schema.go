// Package schema provides the record types shared by the confoo sync pipeline,
// the durable store and the snapshot codec.
//
// Records that cross the extraction boundary are cleaned here: text is NFC
// normalised with collapsed whitespace, times are zero-padded HH:MM, and track
// lists are deduplicated. Nothing downstream of this package sees a nil or
// unnormalised field.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecord is returned by Validate when a record breaks an invariant.
var ErrInvalidRecord = errors.New("invalid record")

// Session is one logical conference session.
type Session struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Abstract    string   `json:"abstract"`
	Day         string   `json:"day"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Room        string   `json:"room"`
	Language    string   `json:"language"`
	Level       string   `json:"level"`
	IsKeynote   bool     `json:"is_keynote"`
	SpeakerSlug string   `json:"speaker_slug"`
	SpeakerName string   `json:"speaker_name"`
	Tracks      []string `json:"tracks"`
}

// Validate checks the session invariants enforced by the store.
func (s *Session) Validate() error {
	if s.Slug == "" {
		return fmt.Errorf("%w: session slug is required", ErrInvalidRecord)
	}
	seen := make(map[string]struct{}, len(s.Tracks))
	for _, t := range s.Tracks {
		if _, dup := seen[t]; dup {
			return fmt.Errorf("%w: session %s has duplicate track %q", ErrInvalidRecord, s.Slug, t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

// PrimaryTrack returns the first track label, or "" when the session has none.
func (s *Session) PrimaryTrack() string {
	if len(s.Tracks) == 0 {
		return ""
	}
	return s.Tracks[0]
}

// Speaker is a conference speaker profile.
type Speaker struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Company  string `json:"company"`
	Country  string `json:"country"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photo_url"`
	Website  string `json:"website"`
	Twitter  string `json:"twitter"`
}

// Validate checks the speaker invariants enforced by the store.
func (s *Speaker) Validate() error {
	if s.Slug == "" {
		return fmt.Errorf("%w: speaker slug is required", ErrInvalidRecord)
	}
	return nil
}

// SpecialEvent is a non-session schedule block such as lunch.
// ID is assigned by the store and is zero for events that were never persisted.
type SpecialEvent struct {
	ID        int64  `json:"-"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Name      string `json:"name"`
}

// GridFragment is one slot observation from the schedule grid. Several
// fragments may describe the same session.
type GridFragment struct {
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

// Sync metadata keys.
const (
	MetaLastSync   = "last_sync"
	MetaLastSyncID = "last_sync_id"
)

// AppendTracks appends the labels from add to dst that are not already
// present, preserving first-seen order. Empty labels are dropped.
func AppendTracks(dst []string, add ...string) []string {
	for _, t := range add {
		if t == "" || containsString(dst, t) {
			continue
		}
		dst = append(dst, t)
	}
	return dst
}

// DedupeTracks returns tracks without empty or repeated labels.
// The result is never nil.
func DedupeTracks(tracks []string) []string {
	return AppendTracks(make([]string, 0, len(tracks)), tracks...)
}

// SplitTrackArtifacts splits labels that contain the tab separator left over
// from the source markup, trims the parts, and deduplicates the result.
func SplitTrackArtifacts(tracks []string) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if !strings.Contains(t, "\t") {
			out = AppendTracks(out, t)
			continue
		}
		for _, part := range strings.Split(t, "\t") {
			out = AppendTracks(out, strings.TrimSpace(part))
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
