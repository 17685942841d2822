package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

// SessionDetail holds what a session page adds to the grid data. The speaker
// fields are hints for the speaker stage.
type SessionDetail struct {
	Abstract       string
	Language       string
	Level          string
	SpeakerCompany string
	SpeakerBio     string
}

var (
	formatPattern   = regexp.MustCompile(`(?i)(English|French)\s+(session|training)`)
	languagePattern = regexp.MustCompile(`(?i)(English|French)`)
	levelPattern    = regexp.MustCompile(`(?i)(Beginner|Intermediate|Advanced)`)
)

var abstractSelectors = []string{
	".content > div > div > div > div",
	".col-md-12 > div > div > div > div",
}

// ParseSessionDetail extracts the abstract, language, level and speaker hints
// from a rendered session page. Missing parts are returned as empty strings.
func ParseSessionDetail(html string) (SessionDetail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return SessionDetail{}, fmt.Errorf("failed to parse session page: %w", err)
	}

	var d SessionDetail

	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.TrimSpace(p.Text())
		if !formatPattern.MatchString(text) {
			return true
		}
		d.Language = submatch(languagePattern, text)
		d.Level = submatch(levelPattern, text)
		return false
	})

	d.Abstract = findAbstract(doc)
	d.SpeakerCompany, d.SpeakerBio = findSpeakerHints(doc)

	d.Abstract = schema.CleanText(d.Abstract)
	d.Language = schema.CleanText(d.Language)
	d.Level = schema.CleanText(d.Level)
	d.SpeakerCompany = schema.CleanText(d.SpeakerCompany)
	d.SpeakerBio = schema.CleanText(d.SpeakerBio)
	return d, nil
}

func findAbstract(doc *goquery.Document) string {
	for _, sel := range abstractSelectors {
		var abstract string
		doc.Find(sel).EachWithBreak(func(_ int, div *goquery.Selection) bool {
			if div.Find("h2").Length() > 0 || div.Find(`a[href*="share"]`).Length() > 0 {
				return true
			}
			text := strings.TrimSpace(div.Text())
			if utf8.RuneCountInString(text) > 50 && !containsAny(text, "View all", "Share on", "Other training") {
				abstract = text
				return false
			}
			return true
		})
		if abstract != "" {
			return abstract
		}
	}

	// Layout fallback: any small div in the content area with enough text.
	var abstract string
	doc.Find(".content").First().Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if div.Children().Length() > 3 || div.Find("h2").Length() > 0 {
			return true
		}
		text := strings.TrimSpace(div.Text())
		if utf8.RuneCountInString(text) > 80 &&
			!containsAny(text, "View all", "Share on", "Home /", "Sponsored by", "Other training") {
			abstract = text
			return false
		}
		return true
	})
	return abstract
}

// findSpeakerHints reads the speaker block of a session page: the first
// section headed by an h2 whose container links to a speaker profile.
func findSpeakerHints(doc *goquery.Document) (company, bio string) {
	doc.Find("h2").EachWithBreak(func(_ int, h2 *goquery.Selection) bool {
		parent := h2.Parent()
		if parent.Length() == 0 || parent.Find(`a[href*="/speaker/"]`).Length() == 0 {
			return true
		}
		parent.Find("p").Each(func(_ int, p *goquery.Selection) {
			text := strings.TrimSpace(p.Text())
			n := utf8.RuneCountInString(text)
			if strings.Contains(text, "Read More") || n < 3 {
				return
			}
			if company == "" && n < 120 {
				company = text
			} else if bio == "" && n > 50 {
				bio = text
			}
		})
		return false
	})
	return company, bio
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
