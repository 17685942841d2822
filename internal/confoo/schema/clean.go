package schema

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanText NFC-normalises s and collapses every run of whitespace to a
// single space.
func CleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// PadTime zero-pads an H:MM time to HH:MM so that times compare
// lexicographically. Values that are not H:MM are returned trimmed.
func PadTime(t string) string {
	t = strings.TrimSpace(t)
	h, m, ok := strings.Cut(t, ":")
	if !ok {
		return t
	}
	hour, err := strconv.Atoi(h)
	if err != nil || len(m) != 2 {
		return t
	}
	return fmt.Sprintf("%02d:%s", hour, m)
}

// Normalize returns a copy of f with cleaned text, padded times and
// deduplicated tracks. Track labels are trimmed but not split; tab artifacts
// are only handled when reading snapshots.
func (f GridFragment) Normalize() GridFragment {
	tracks := make([]string, 0, len(f.Tracks))
	for _, t := range f.Tracks {
		tracks = AppendTracks(tracks, strings.TrimSpace(norm.NFC.String(t)))
	}
	return GridFragment{
		Slug:        strings.TrimSpace(f.Slug),
		Title:       CleanText(f.Title),
		Day:         CleanText(f.Day),
		StartTime:   PadTime(f.StartTime),
		EndTime:     PadTime(f.EndTime),
		Room:        CleanText(f.Room),
		SpeakerSlug: strings.TrimSpace(f.SpeakerSlug),
		SpeakerName: CleanText(f.SpeakerName),
		IsKeynote:   f.IsKeynote,
		Tracks:      tracks,
	}
}
