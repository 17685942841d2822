package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/confoo-planner/confoo/internal/confoo/db"
	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

func seededDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "confoo.db"))
	if err != nil {
		t.Fatalf("db.Open() failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	b := database.NewBatch(db.DefaultBatchSize)
	ctx := context.Background()
	for _, s := range []*schema.Session{
		{Slug: "x", Title: "Building Agents", Day: "Wednesday, February 25", StartTime: "09:30", EndTime: "10:30",
			Room: "A", Language: "English", IsKeynote: true, SpeakerSlug: "jane", SpeakerName: "Jane Doe",
			Tracks: []string{"AI", "Cloud"}},
		{Slug: "y", Title: "Sécurité", Day: "Wednesday, February 25", StartTime: "09:30", EndTime: "10:00",
			Room: "B", Tracks: []string{}},
	} {
		if err := b.UpsertSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.UpsertSpeaker(ctx, &schema.Speaker{Slug: "jane", Name: "Jane Doe", Country: "Canada"}); err != nil {
		t.Fatal(err)
	}
	if err := b.AppendSpecialEvent(ctx, &schema.SpecialEvent{Day: "Wednesday, February 25", StartTime: "12:00", EndTime: "13:00", Name: "Lunch"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
	return database
}

func TestExportLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	database := seededDB(t)
	path := filepath.Join(t.TempDir(), "data", "confoo2026.json")

	exported, err := Export(ctx, database, path)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if exported.ExportedAt == "" {
		t.Error("ExportedAt not set")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	wantSessions, _ := database.Sessions(ctx)
	if diff := cmp.Diff(wantSessions, loaded.Sessions); diff != "" {
		t.Errorf("sessions (-store +snapshot):\n%s", diff)
	}
	wantSpeakers, _ := database.Speakers(ctx)
	if diff := cmp.Diff(wantSpeakers, loaded.Speakers); diff != "" {
		t.Errorf("speakers (-store +snapshot):\n%s", diff)
	}
	wantEvents, _ := database.SpecialEvents(ctx)
	if diff := cmp.Diff(wantEvents, loaded.SpecialEvents, cmpopts.IgnoreFields(schema.SpecialEvent{}, "ID")); diff != "" {
		t.Errorf("events (-store +snapshot):\n%s", diff)
	}
}

func TestExport_FieldNames(t *testing.T) {
	database := seededDB(t)
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if _, err := Export(context.Background(), database, path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"exported_at", "sessions", "speakers", "special_events"} {
		if _, ok := top[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}
	delete(top, "exported_at")
	raw := make(map[string][]map[string]any)
	for k, v := range top {
		var list []map[string]any
		if err := json.Unmarshal(v, &list); err != nil {
			t.Fatal(err)
		}
		raw[k] = list
	}

	wantKeys := map[string][]string{
		"sessions": {"abstract", "day", "end_time", "is_keynote", "language", "level", "room",
			"slug", "speaker_name", "speaker_slug", "start_time", "title", "tracks"},
		"speakers":       {"bio", "company", "country", "name", "photo_url", "slug", "twitter", "website"},
		"special_events": {"day", "end_time", "name", "start_time"},
	}
	for section, want := range wantKeys {
		if len(raw[section]) == 0 {
			t.Fatalf("section %s empty", section)
		}
		var got []string
		for k := range raw[section][0] {
			got = append(got, k)
		}
		if diff := cmp.Diff(want, got, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
			t.Errorf("%s keys (-want +got):\n%s", section, diff)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	doc, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load() on missing file failed: %v", err)
	}
	if len(doc.Sessions) != 0 || len(doc.Speakers) != 0 || len(doc.SpecialEvents) != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"sessions": [`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed snapshot")
	}
}

func TestLoad_SplitsTabbedTracks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	data := `{
  "exported_at": "2026-02-01T12:00:00-05:00",
  "sessions": [
    {"slug": "x", "title": "X", "tracks": ["AI\t Cloud ", "Cloud", "Web"]},
    {"title": "no slug"}
  ],
  "speakers": [{"slug": "jane", "name": "Jane"}]
}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(doc.Sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(doc.Sessions))
	}
	if diff := cmp.Diff([]string{"AI", "Cloud", "Web"}, doc.Sessions[0].Tracks); diff != "" {
		t.Errorf("tracks (-want +got):\n%s", diff)
	}
	if doc.Sessions[0].Abstract != "" || doc.Speakers[0].Company != "" {
		t.Error("missing fields should decode as empty strings")
	}
	if doc.SpecialEvents == nil {
		t.Error("SpecialEvents should be empty, not nil")
	}
}
