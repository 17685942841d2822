package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

var (
	timePattern        = regexp.MustCompile(`\d+:\d+`)
	sessionHrefPattern = regexp.MustCompile(`/en/\d+/session/(.+?)$`)
	speakerHrefPattern = regexp.MustCompile(`/en/speaker/(.+?)$`)
)

// ParseGrid extracts one fragment per session slot and one special event per
// lunch row from the rendered schedule page. Fragments are returned in
// document order and already normalised; slots whose link does not carry a
// session slug yield a fragment with an empty slug.
func ParseGrid(html string) ([]schema.GridFragment, []schema.SpecialEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse schedule page: %w", err)
	}

	var fragments []schema.GridFragment
	var events []schema.SpecialEvent

	doc.Find(".schedule-day").Each(func(dayIdx int, dayEl *goquery.Selection) {
		dayText := "Day " + strconv.Itoa(dayIdx)
		if h := dayEl.Prev(); h.Length() > 0 {
			dayText = strings.TrimSpace(h.Text())
		}

		var rooms []string
		dayEl.Find(".row:first-child").First().Find(".room").Each(func(_ int, r *goquery.Selection) {
			rooms = append(rooms, strings.TrimSpace(r.Text()))
		})

		dayEl.Find(".row").Each(func(_ int, row *goquery.Selection) {
			timeEl := row.Find(".time").First()
			if timeEl.Length() == 0 {
				return
			}
			times := timePattern.FindAllString(timeEl.Text(), -1)
			start, end := "", ""
			if len(times) > 0 {
				start = times[0]
			}
			if len(times) > 1 {
				end = times[1]
			}

			if lunch := row.Find(".lunch").First(); lunch.Length() > 0 {
				events = append(events, schema.SpecialEvent{
					Day:       schema.CleanText(dayText),
					StartTime: schema.PadTime(start),
					EndTime:   schema.PadTime(end),
					Name:      schema.CleanText(lunch.Text()),
				})
				return
			}

			row.Find(".slot").Each(func(slotIdx int, slot *goquery.Selection) {
				link := slot.Find(".session a").First()
				if link.Length() == 0 {
					return
				}
				frag := schema.GridFragment{
					Slug:      submatch(sessionHrefPattern, link.AttrOr("href", "")),
					Title:     link.Text(),
					Day:       dayText,
					StartTime: start,
					EndTime:   end,
				}

				if sp := slot.Find(".speaker a").First(); sp.Length() > 0 {
					frag.SpeakerSlug = submatch(speakerHrefPattern, sp.AttrOr("href", ""))
					frag.SpeakerName = sp.Text()
				}

				sessionType := strings.TrimSpace(slot.Find(".session-type").First().Text())
				frag.IsKeynote = slot.HasClass("keynote") || strings.EqualFold(sessionType, "keynote")

				if room := slot.Find(".room").First(); room.Length() > 0 {
					frag.Room = room.Text()
				} else if slotIdx < len(rooms) {
					frag.Room = rooms[slotIdx]
				}

				slot.Find(".tag").Each(func(_ int, tag *goquery.Selection) {
					if title := tag.AttrOr("title", ""); title != "" {
						frag.Tracks = append(frag.Tracks, title)
					}
				})

				fragments = append(fragments, frag.Normalize())
			})
		})
	})

	return fragments, events, nil
}

func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
