package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/confoo-planner/confoo/internal/confoo/dayutil"
	"github.com/confoo-planner/confoo/internal/confoo/ratings"
	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

// week interprets day labels in every view. SetWeek replaces it.
var week = dayutil.Conference

// SetWeek sets the conference week used to label days.
func SetWeek(w dayutil.Week) {
	week = w
}

// DayHeader renders a day label as "Wed 25 Feb 2026".
func DayHeader(day string) string {
	return RenderHeader(week.Display(day))
}

// SessionRow renders one line of a session listing.
func SessionRow(s *schema.Session) string {
	var b strings.Builder
	b.WriteString(RenderMuted(fmt.Sprintf("%-13s", dayutil.FormatRange(s.StartTime, s.EndTime, "-"))))
	b.WriteString(" ")
	b.WriteString(RenderMuted(fmt.Sprintf("%-12s", truncate(s.Room, 12))))
	b.WriteString(" ")
	if s.IsKeynote {
		b.WriteString(keynoteStyle.Render("★ " + s.Title))
	} else {
		b.WriteString(titleStyle.Render(s.Title))
	}
	if s.SpeakerName != "" {
		b.WriteString(" ")
		b.WriteString(RenderMuted("· " + s.SpeakerName))
	}
	if len(s.Tracks) > 0 {
		b.WriteString(" ")
		b.WriteString(RenderAccent("[" + strings.Join(s.Tracks, ", ") + "]"))
	}
	return b.String()
}

// EventRow renders a break or meal in a listing.
func EventRow(e *schema.SpecialEvent) string {
	when := fmt.Sprintf("%-13s", dayutil.FormatRange(e.StartTime, e.EndTime, "-"))
	return RenderMuted(when + " " + fmt.Sprintf("%-12s", "") + " " + e.Name)
}

// SessionList renders sessions grouped under day headers, with special events
// slotted in by start time.
func SessionList(sessions []*schema.Session, events []*schema.SpecialEvent) string {
	byDay := make(map[string][]*schema.SpecialEvent)
	for _, e := range events {
		byDay[e.Day] = append(byDay[e.Day], e)
	}

	var b strings.Builder
	day := "\x00"
	var pending []*schema.SpecialEvent
	flushBefore := func(start string) {
		for len(pending) > 0 && (start == "" || pending[0].StartTime <= start) {
			b.WriteString(EventRow(pending[0]))
			b.WriteString("\n")
			pending = pending[1:]
		}
	}
	for _, s := range sessions {
		if s.Day != day {
			flushBefore("")
			if day != "\x00" {
				b.WriteString("\n")
			}
			day = s.Day
			pending = byDay[day]
			b.WriteString(DayHeader(day))
			b.WriteString("\n")
		}
		flushBefore(s.StartTime)
		b.WriteString(SessionRow(s))
		b.WriteString("\n")
	}
	flushBefore("")
	return b.String()
}

// SessionDetail renders a full session page. speaker and rating may be nil.
func SessionDetail(s *schema.Session, speaker *schema.Speaker, rating *ratings.Rating) string {
	var b strings.Builder
	title := titleStyle.Render(s.Title)
	if s.IsKeynote {
		title = keynoteStyle.Render("★ Keynote: " + s.Title)
	}
	b.WriteString(title + "\n\n")

	field(&b, "When", strings.TrimSpace(week.Display(s.Day)+" "+dayutil.FormatRange(s.StartTime, s.EndTime, " - ")))
	field(&b, "Room", s.Room)
	field(&b, "Tracks", strings.Join(s.Tracks, ", "))
	field(&b, "Language", s.Language)
	field(&b, "Level", s.Level)

	speakerLine := s.SpeakerName
	if speaker != nil && speaker.Company != "" {
		speakerLine += " (" + speaker.Company + ")"
	}
	if rating != nil {
		speakerLine += "  " + RenderRating(*rating)
	}
	field(&b, "Speaker", speakerLine)

	if s.Abstract != "" {
		b.WriteString("\n")
		b.WriteString(bodyStyle.Render(s.Abstract))
		b.WriteString("\n")
	}
	return b.String()
}

// SpeakerDetail renders a speaker profile followed by their sessions.
func SpeakerDetail(sp *schema.Speaker, sessions []*schema.Session, rating *ratings.Rating) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(sp.Name) + "\n\n")
	field(&b, "Company", sp.Company)
	field(&b, "Country", sp.Country)
	field(&b, "Website", sp.Website)
	field(&b, "Twitter", sp.Twitter)
	if rating != nil {
		field(&b, "Rating", RenderRating(*rating))
		field(&b, "Note", rating.Note)
	}
	if sp.Bio != "" {
		b.WriteString("\n")
		b.WriteString(bodyStyle.Render(sp.Bio))
		b.WriteString("\n")
	}
	if len(sessions) > 0 {
		b.WriteString("\n" + RenderHeader("Sessions") + "\n")
		for _, s := range sessions {
			b.WriteString(RenderMuted(week.TabLabel(s.Day)) + " " + SessionRow(s) + "\n")
		}
	}
	return b.String()
}

// RenderRating renders "S ★★★★★ Exceptional".
func RenderRating(r ratings.Rating) string {
	return warnStyle.Render(r.Display()) + " " + RenderMuted(r.Badge())
}

// KeyValues renders aligned "label value" lines, skipping empty values.
func KeyValues(pairs ...[2]string) string {
	var b strings.Builder
	for _, p := range pairs {
		field(&b, p[0], p[1])
	}
	return b.String()
}

func field(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value))
	b.WriteString("\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
