// Package extract turns rendered pages of the conference website into typed
// records.
//
// A Browser renders a page to HTML; the Parse functions read that HTML with
// goquery. The Adapter ties the two together with the site's URL layout and
// per-navigation timeouts. Every string leaving this package is cleaned with
// schema.CleanText, and times are zero-padded.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

// Default site layout and timeouts.
const (
	DefaultBaseURL     = "https://confoo.ca"
	DefaultYear        = 2026
	DefaultUserAgent   = "ConFoo2026-TUI-Planner/0.1 (personal schedule tool)"
	DefaultGridTimeout = 30 * time.Second
	DefaultPageTimeout = 15 * time.Second

	gridReadySelector = ".schedule-day"
)

// Site describes the conference website's URL layout.
type Site struct {
	BaseURL string
	Year    int
}

// DefaultSite returns the 2026 conference site.
func DefaultSite() Site {
	return Site{BaseURL: DefaultBaseURL, Year: DefaultYear}
}

func (s Site) base() string {
	return strings.TrimRight(s.BaseURL, "/")
}

// ScheduleURL returns the schedule grid page.
func (s Site) ScheduleURL() string {
	return s.base() + "/en/" + strconv.Itoa(s.Year) + "/schedule"
}

// SessionURL returns the detail page of one session.
func (s Site) SessionURL(slug string) string {
	return s.base() + "/en/" + strconv.Itoa(s.Year) + "/session/" + url.PathEscape(slug)
}

// SpeakerURL returns the profile page of one speaker.
func (s Site) SpeakerURL(slug string) string {
	return s.base() + "/en/speaker/" + url.PathEscape(slug)
}

// Adapter fetches and parses the three kinds of page the sync reads.
type Adapter struct {
	Browser     Browser
	Site        Site
	GridTimeout time.Duration
	PageTimeout time.Duration
}

// NewAdapter returns an Adapter with default timeouts.
func NewAdapter(b Browser, site Site) *Adapter {
	return &Adapter{
		Browser:     b,
		Site:        site,
		GridTimeout: DefaultGridTimeout,
		PageTimeout: DefaultPageTimeout,
	}
}

// Grid renders the schedule page and returns its slot fragments and special
// events.
func (a *Adapter) Grid(ctx context.Context) ([]schema.GridFragment, []schema.SpecialEvent, error) {
	html, err := a.Browser.Render(ctx, a.Site.ScheduleURL(), gridReadySelector, orDefault(a.GridTimeout, DefaultGridTimeout))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load schedule grid: %w", err)
	}
	return ParseGrid(html)
}

// SessionDetail renders and parses one session page.
func (a *Adapter) SessionDetail(ctx context.Context, slug string) (SessionDetail, error) {
	html, err := a.Browser.Render(ctx, a.Site.SessionURL(slug), "", orDefault(a.PageTimeout, DefaultPageTimeout))
	if err != nil {
		return SessionDetail{}, err
	}
	return ParseSessionDetail(html)
}

// SpeakerProfile renders and parses one speaker page.
func (a *Adapter) SpeakerProfile(ctx context.Context, slug string) (SpeakerProfile, error) {
	pageURL := a.Site.SpeakerURL(slug)
	html, err := a.Browser.Render(ctx, pageURL, "", orDefault(a.PageTimeout, DefaultPageTimeout))
	if err != nil {
		return SpeakerProfile{}, err
	}
	return ParseSpeakerProfile(html, pageURL)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
