// Package dayutil interprets the free-form day labels scraped from the
// schedule grid ("Wednesday (2026-02-25)", "Wednesday, February 25", "25").
package dayutil

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	isoDateRe   = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	monthDayRe  = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})\b`)
	plainDayRe  = regexp.MustCompile(`^(\d{1,2})$`)
	monthByAbbr = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
		"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
		"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
	}
)

// Week anchors day labels to a conference week. Start is the Monday of the
// week; weekday names and bare day numbers are resolved against it.
type Week struct {
	Start time.Time
}

// Conference is the ConFoo 2026 week (Mon 23 to Fri 27 February).
var Conference = ForYear(2026)

// ForYear returns the conference week of year: the Monday-based week that
// contains February 25.
func ForYear(year int) Week {
	anchor := time.Date(year, time.February, 25, 0, 0, 0, 0, time.Local)
	offset := (int(anchor.Weekday()) + 6) % 7
	return NewWeek(anchor.AddDate(0, 0, -offset))
}

// NewWeek returns a Week starting on the given day, truncated to midnight.
func NewWeek(start time.Time) Week {
	y, m, d := start.Date()
	return Week{Start: time.Date(y, m, d, 0, 0, 0, 0, start.Location())}
}

// Date parses a day label into a calendar date.
func (w Week) Date(label string) (time.Time, bool) {
	loc := w.Start.Location()
	if m := isoDateRe.FindStringSubmatch(label); m != nil {
		t, err := time.ParseInLocation("2006-01-02", m[0], loc)
		if err == nil {
			return t, true
		}
	}
	if m := monthDayRe.FindStringSubmatch(label); m != nil {
		day, _ := strconv.Atoi(m[2])
		month := monthByAbbr[strings.ToLower(m[1])]
		return time.Date(w.Start.Year(), month, day, 0, 0, 0, 0, loc), true
	}
	lower := strings.ToLower(label)
	for i := 0; i < 7; i++ {
		d := w.Start.AddDate(0, 0, i)
		if strings.Contains(lower, strings.ToLower(d.Weekday().String())) {
			return d, true
		}
	}
	if m := plainDayRe.FindStringSubmatch(strings.TrimSpace(label)); m != nil {
		day, _ := strconv.Atoi(m[1])
		return time.Date(w.Start.Year(), w.Start.Month(), day, 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

// DayNumber returns the day of month a label refers to, or the label itself
// when it cannot be interpreted.
func (w Week) DayNumber(label string) string {
	if d, ok := w.Date(label); ok {
		return strconv.Itoa(d.Day())
	}
	slog.Debug("unrecognized day format", "day", label)
	return label
}

// SortKey orders day labels chronologically.
func (w Week) SortKey(label string) string {
	if d, ok := w.Date(label); ok {
		return d.Format("2006-01-02")
	}
	return label
}

// Sort returns a copy of days ordered chronologically.
func (w Week) Sort(days []string) []string {
	out := slices.Clone(days)
	slices.SortStableFunc(out, func(a, b string) int {
		return strings.Compare(w.SortKey(a), w.SortKey(b))
	})
	return out
}

// TabLabel returns a short label such as "Wed 25".
func (w Week) TabLabel(label string) string {
	if d, ok := w.Date(label); ok {
		return d.Format("Mon 2")
	}
	if len(label) > 15 {
		return label[:15]
	}
	return label
}

// Display returns a label such as "Wed 25 Feb 2026".
func (w Week) Display(label string) string {
	if d, ok := w.Date(label); ok {
		return d.Format("Mon 2 Jan 2006")
	}
	return label
}

// Resolve maps user input ("thursday", "feb 26", "tomorrow") onto one of the
// known day labels. Exact (case-insensitive) label matches win; otherwise the
// input is parsed as a date, falling back to natural-language parsing
// relative to the start of the week.
func (w Week) Resolve(input string, days []string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	for _, d := range days {
		if strings.EqualFold(d, input) {
			return d, true
		}
	}

	target, ok := w.Date(input)
	if !ok {
		p := when.New(nil)
		p.Add(en.All...)
		p.Add(common.All...)
		r, err := p.Parse(input, w.Start)
		if err != nil || r == nil {
			return "", false
		}
		target = r.Time
	}

	for _, d := range days {
		if t, ok := w.Date(d); ok && sameDay(t, target) {
			return d, true
		}
	}
	return "", false
}

// FormatRange joins a start and end time, omitting the separator when the end
// time is unknown.
func FormatRange(start, end, sep string) string {
	if end == "" {
		return start
	}
	return fmt.Sprintf("%s%s%s", start, sep, end)
}

// At combines a day label and an HH:MM time into a timestamp.
func (w Week) At(label, hhmm string) (time.Time, bool) {
	d, ok := w.Date(label)
	if !ok {
		return time.Time{}, false
	}
	h, m, found := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !found {
		return time.Time{}, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location()), true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
