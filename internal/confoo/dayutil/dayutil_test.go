package dayutil

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDayNumber(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Wednesday      (2026-02-25)", "25"},
		{"Wednesday, February 25", "25"},
		{"2026-02-26", "26"},
		{"Friday", "27"},
		{"25", "25"},
		{"Day 3", "Day 3"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := Conference.DayNumber(tt.label); got != tt.want {
				t.Errorf("DayNumber(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestLabels(t *testing.T) {
	label := "Thursday (2026-02-26)"
	if got := Conference.TabLabel(label); got != "Thu 26" {
		t.Errorf("TabLabel() = %q, want %q", got, "Thu 26")
	}
	if got := Conference.Display(label); got != "Thu 26 Feb 2026" {
		t.Errorf("Display() = %q, want %q", got, "Thu 26 Feb 2026")
	}
	if got := Conference.SortKey(label); got != "2026-02-26" {
		t.Errorf("SortKey() = %q, want %q", got, "2026-02-26")
	}
	if got := Conference.TabLabel("Some very long unparseable label"); got != "Some very long " {
		t.Errorf("TabLabel() fallback = %q", got)
	}
}

func TestSortKey_Chronological(t *testing.T) {
	a := Conference.SortKey("Friday, February 27")
	b := Conference.SortKey("Wednesday (2026-02-25)")
	if !(b < a) {
		t.Errorf("expected Wednesday (%s) to sort before Friday (%s)", b, a)
	}
}

func TestForYear(t *testing.T) {
	tests := []struct {
		year int
		want string
	}{
		{2026, "2026-02-23"},
		{2025, "2025-02-24"},
		{2024, "2024-02-19"},
	}
	for _, tt := range tests {
		got := ForYear(tt.year).Start
		if got.Format("2006-01-02") != tt.want || got.Weekday() != time.Monday {
			t.Errorf("ForYear(%d).Start = %s (%s), want Monday %s", tt.year, got.Format("2006-01-02"), got.Weekday(), tt.want)
		}
	}
	if got := ForYear(2025).DayNumber("Wednesday"); got != "26" {
		t.Errorf("ForYear(2025).DayNumber(Wednesday) = %q, want 26", got)
	}
}

func TestSort_Chronological(t *testing.T) {
	days := []string{"Thursday, February 26", "Friday, February 27", "Wednesday, February 25"}
	got := Conference.Sort(days)
	want := []string{"Wednesday, February 25", "Thursday, February 26", "Friday, February 27"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sort() (-want +got):\n%s", diff)
	}
	if days[0] != "Thursday, February 26" {
		t.Error("Sort() modified its input")
	}
}

func TestResolve(t *testing.T) {
	days := []string{"Wednesday (2026-02-25)", "Thursday (2026-02-26)", "Friday (2026-02-27)"}

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"thursday (2026-02-26)", "Thursday (2026-02-26)", true},
		{"thursday", "Thursday (2026-02-26)", true},
		{"feb 27", "Friday (2026-02-27)", true},
		{"2026-02-25", "Wednesday (2026-02-25)", true},
		{"Monday", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Conference.Resolve(tt.input, days)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestAt(t *testing.T) {
	got, ok := Conference.At("Wednesday (2026-02-25)", "09:30")
	if !ok {
		t.Fatal("At() returned !ok")
	}
	want := time.Date(2026, time.February, 25, 9, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("At() = %v, want %v", got, want)
	}
	if _, ok := Conference.At("Wednesday", ""); ok {
		t.Error("At() with empty time should fail")
	}
}

func TestFormatRange(t *testing.T) {
	if got := FormatRange("09:00", "10:00", "-"); got != "09:00-10:00" {
		t.Errorf("FormatRange() = %q", got)
	}
	if got := FormatRange("09:00", "", "-"); got != "09:00" {
		t.Errorf("FormatRange() without end = %q", got)
	}
}
