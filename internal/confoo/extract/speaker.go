package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

// SpeakerProfile holds the fields read from a speaker page.
type SpeakerProfile struct {
	Name     string
	Company  string
	Country  string
	Bio      string
	PhotoURL string
	Website  string
	Twitter  string
}

var listingPattern = regexp.MustCompile(`(?i)session\s*-|training\s*-`)

// ParseSpeakerProfile extracts a speaker profile from a rendered speaker
// page. pageURL resolves relative photo and website links.
func ParseSpeakerProfile(html, pageURL string) (SpeakerProfile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return SpeakerProfile{}, fmt.Errorf("failed to parse speaker page: %w", err)
	}
	base, _ := url.Parse(pageURL)

	var p SpeakerProfile
	p.Name = schema.CleanText(doc.Find("h1").First().Text())
	p.Company = schema.CleanText(doc.Find(".company").First().Text())

	content := doc.Find(".content").First()
	if content.Length() == 0 {
		content = doc.Find("main").First()
	}

	content.Find("p").EachWithBreak(func(_ int, para *goquery.Selection) bool {
		span := para.Find("span").First()
		if span.Length() == 0 {
			return true
		}
		text := schema.CleanText(span.Text())
		n := utf8.RuneCountInString(text)
		if n > 2 && n < 50 && !strings.Contains(text, "session") && !strings.Contains(text, "training") {
			p.Country = text
			return false
		}
		return true
	})

	content.Find("p").EachWithBreak(func(_ int, para *goquery.Selection) bool {
		text := schema.CleanText(para.Text())
		if utf8.RuneCountInString(text) <= 50 ||
			listingPattern.MatchString(text) ||
			containsAny(text, "Share on", "Read More") ||
			(p.Country != "" && strings.Contains(text, p.Country)) {
			return true
		}
		p.Bio = text
		return false
	})

	if p.Name != "" {
		doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			if img.AttrOr("alt", "") != p.Name {
				return true
			}
			p.PhotoURL = resolve(base, img.AttrOr("src", ""))
			return false
		})
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if (strings.Contains(href, "twitter.com") || strings.Contains(href, "x.com/")) &&
			!strings.Contains(href, "intent/tweet") && !strings.Contains(href, "confooca") {
			p.Twitter = href
			return false
		}
		return true
	})

	website := doc.Find("a.website").First()
	if website.Length() == 0 {
		website = content.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return strings.EqualFold(strings.TrimSpace(a.Text()), "website")
		}).First()
	}
	if href := website.AttrOr("href", ""); href != "" {
		p.Website = resolve(base, href)
	}

	return p, nil
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
