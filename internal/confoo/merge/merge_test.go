package merge

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

func TestGrid_MergesRepeatedSlug(t *testing.T) {
	fragments := []schema.GridFragment{
		{Slug: "x", Title: "X", Day: "Wed", StartTime: "09:30", EndTime: "10:00", Room: "A", Tracks: []string{"AI"}},
		{Slug: "y", Title: "Y", Day: "Wed", StartTime: "09:30", EndTime: "10:00", Room: "B", Tracks: []string{"Web"}},
		{Slug: "x", Title: "X", Day: "Wed", StartTime: "10:00", EndTime: "10:30", Room: "A", Tracks: []string{"AI", "Cloud"}},
	}
	r := Grid(fragments, nil)

	if diff := cmp.Diff([]string{"x", "y"}, r.Order); diff != "" {
		t.Errorf("Order (-want +got):\n%s", diff)
	}
	x := r.Sessions["x"]
	if x.StartTime != "09:30" || x.EndTime != "10:30" {
		t.Errorf("x spans %s-%s, want 09:30-10:30", x.StartTime, x.EndTime)
	}
	if diff := cmp.Diff([]string{"AI", "Cloud"}, x.Tracks); diff != "" {
		t.Errorf("x tracks (-want +got):\n%s", diff)
	}
	y := r.Sessions["y"]
	if y.StartTime != "09:30" || y.EndTime != "10:00" || y.Room != "B" {
		t.Errorf("y changed: %+v", y)
	}
}

func TestGrid_DropsEmptySlug(t *testing.T) {
	r := Grid([]schema.GridFragment{
		{Slug: "", Title: "Sponsor", SpeakerSlug: "ghost"},
		{Slug: "a", Title: "A"},
	}, nil)
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	if len(r.SpeakerSlugs) != 0 {
		t.Errorf("speaker of dropped fragment kept: %v", r.SpeakerSlugs)
	}
}

func TestGrid_FirstSeenWins(t *testing.T) {
	r := Grid([]schema.GridFragment{
		{Slug: "x", Title: "First", Room: "A", IsKeynote: true, SpeakerSlug: "jane", SpeakerName: "Jane"},
		{Slug: "x", Title: "Second", Room: "B", IsKeynote: false, SpeakerSlug: "bob", SpeakerName: "Bob"},
	}, nil)
	x := r.Sessions["x"]
	if x.Title != "First" || x.Room != "A" || !x.IsKeynote || x.SpeakerSlug != "jane" {
		t.Errorf("later fragment overrode scalar fields: %+v", x)
	}
	// Both speakers are still discovered.
	if diff := cmp.Diff([]string{"bob", "jane"}, r.SpeakerSlugs); diff != "" {
		t.Errorf("SpeakerSlugs (-want +got):\n%s", diff)
	}
}

func TestGrid_TimeBounds(t *testing.T) {
	tests := []struct {
		name      string
		frags     [][2]string
		wantStart string
		wantEnd   string
	}{
		{"single", [][2]string{{"09:00", "10:00"}}, "09:00", "10:00"},
		{"later first", [][2]string{{"11:00", "12:00"}, {"09:00", "10:00"}}, "09:00", "12:00"},
		{"empty start never wins", [][2]string{{"", "10:00"}, {"09:00", ""}}, "09:00", "10:00"},
		{"all empty", [][2]string{{"", ""}, {"", ""}}, "", ""},
		{"padded compare", [][2]string{{"10:00", "11:00"}, {"09:30", "10:00"}}, "09:30", "11:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var frags []schema.GridFragment
			for _, f := range tt.frags {
				frags = append(frags, schema.GridFragment{Slug: "s", StartTime: f[0], EndTime: f[1]})
			}
			s := Grid(frags, nil).Sessions["s"]
			if s.StartTime != tt.wantStart || s.EndTime != tt.wantEnd {
				t.Errorf("got %q-%q, want %q-%q", s.StartTime, s.EndTime, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestGrid_SpeakerSlugsSortedDistinct(t *testing.T) {
	r := Grid([]schema.GridFragment{
		{Slug: "a", SpeakerSlug: "zed", SpeakerName: ""},
		{Slug: "b", SpeakerSlug: "amy", SpeakerName: "Amy"},
		{Slug: "c", SpeakerSlug: "zed", SpeakerName: "Zed"},
		{Slug: "d"},
	}, nil)
	if diff := cmp.Diff([]string{"amy", "zed"}, r.SpeakerSlugs); diff != "" {
		t.Errorf("SpeakerSlugs (-want +got):\n%s", diff)
	}
	if r.SpeakerNames["zed"] != "Zed" {
		t.Errorf("empty grid name should yield to a later non-empty one, got %q", r.SpeakerNames["zed"])
	}
}

func TestGrid_EventsPassThrough(t *testing.T) {
	events := []schema.SpecialEvent{{Day: "Wed", StartTime: "12:00", EndTime: "13:00", Name: "Lunch"}}
	r := Grid(nil, events)
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if diff := cmp.Diff(events, r.Events); diff != "" {
		t.Errorf("Events (-want +got):\n%s", diff)
	}
}

func TestGridSession_Session(t *testing.T) {
	g := &GridSession{Slug: "x", Title: "X", Tracks: []string{"AI"}}
	s := g.Session()
	s.Tracks[0] = "changed"
	if g.Tracks[0] != "AI" {
		t.Error("Session() shares the track slice with the grid record")
	}
	if s.Abstract != "" || s.Language != "" || s.Level != "" {
		t.Errorf("detail fields not empty: %+v", s)
	}
}

func ExampleGrid() {
	r := Grid([]schema.GridFragment{
		{Slug: "x", StartTime: "09:30", EndTime: "10:00", Tracks: []string{"AI"}},
		{Slug: "x", StartTime: "10:00", EndTime: "10:30", Tracks: []string{"AI", "Cloud"}},
	}, nil)
	x := r.Sessions["x"]
	fmt.Println(x.StartTime, x.EndTime, x.Tracks)
	// Output: 09:30 10:30 [AI Cloud]
}
