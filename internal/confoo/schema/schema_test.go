package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSession_Validate(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{
			name:    "valid session",
			session: Session{Slug: "go-generics", Title: "Go Generics", Tracks: []string{"Go", "Backend"}},
		},
		{
			name:    "missing slug",
			session: Session{Title: "No slug"},
			wantErr: true,
		},
		{
			name:    "duplicate track",
			session: Session{Slug: "dup", Tracks: []string{"AI", "AI"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("Validate() error = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestSpeaker_Validate(t *testing.T) {
	if err := (&Speaker{}).Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("empty speaker: got %v, want ErrInvalidRecord", err)
	}
	if err := (&Speaker{Slug: "jane-doe"}).Validate(); err != nil {
		t.Errorf("valid speaker: got %v", err)
	}
}

func TestPrimaryTrack(t *testing.T) {
	s := Session{Slug: "x"}
	if got := s.PrimaryTrack(); got != "" {
		t.Errorf("PrimaryTrack() = %q, want empty", got)
	}
	s.Tracks = []string{"Security", "PHP"}
	if got := s.PrimaryTrack(); got != "Security" {
		t.Errorf("PrimaryTrack() = %q, want Security", got)
	}
}

func TestAppendTracks(t *testing.T) {
	got := AppendTracks([]string{"AI"}, "AI", "Cloud", "", "Cloud", "DevOps")
	want := []string{"AI", "Cloud", "DevOps"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AppendTracks() mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupeTracks_NeverNil(t *testing.T) {
	if got := DedupeTracks(nil); got == nil || len(got) != 0 {
		t.Errorf("DedupeTracks(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestSplitTrackArtifacts(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"clean labels untouched", []string{"AI", "Cloud"}, []string{"AI", "Cloud"}},
		{"tab split", []string{"AI\tCloud"}, []string{"AI", "Cloud"}},
		{"split then dedupe", []string{"AI", "AI\t Cloud \t\tAI"}, []string{"AI", "Cloud"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SplitTrackArtifacts(tt.in)); diff != "" {
				t.Errorf("SplitTrackArtifacts() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPadTime(t *testing.T) {
	tests := map[string]string{
		"9:30":   "09:30",
		"09:30":  "09:30",
		" 14:05": "14:05",
		"":       "",
		"noon":   "noon",
		"9:5":    "9:5",
	}
	for in, want := range tests {
		if got := PadTime(in); got != want {
			t.Errorf("PadTime(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanText(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	got := CleanText("  Café \n\t  Montréal  ")
	if want := "Caf\u00e9 Montréal"; got != want {
		t.Errorf("CleanText() = %q, want %q", got, want)
	}
}

func TestGridFragment_Normalize(t *testing.T) {
	f := GridFragment{
		Slug:      " x ",
		Title:     "  Hello\n World ",
		Day:       "Wednesday      (2026-02-25)",
		StartTime: "9:30",
		EndTime:   "10:00",
		Tracks:    []string{" AI ", "AI", ""},
	}
	got := f.Normalize()
	want := GridFragment{
		Slug:      "x",
		Title:     "Hello World",
		Day:       "Wednesday (2026-02-25)",
		StartTime: "09:30",
		EndTime:   "10:00",
		Tracks:    []string{"AI"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}
