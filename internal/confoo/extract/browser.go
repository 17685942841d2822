package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// Browser renders a page and returns its HTML after scripts have run.
// Implementations drive a single tab; callers never issue concurrent renders.
type Browser interface {
	// Render navigates to url, waits for waitSelector to be ready (when
	// non-empty) and returns the document's outer HTML. The navigation is
	// abandoned after timeout.
	Render(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error)
	Close() error
}

// ChromeOptions configures a ChromeBrowser.
type ChromeOptions struct {
	UserAgent string
	Headless  bool
	Logger    *slog.Logger
}

// ChromeBrowser is a Browser backed by a headless Chrome instance.
type ChromeBrowser struct {
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	logger      *slog.Logger
}

// NewChromeBrowser launches Chrome and opens one tab. The browser lives until
// Close is called or ctx is cancelled.
func NewChromeBrowser(ctx context.Context, opts ChromeOptions) (*ChromeBrowser, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "browser")

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tab, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(tab); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &ChromeBrowser{
		tab:         tab,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Render implements Browser.
func (b *ChromeBrowser) Render(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error) {
	runCtx, cancel := context.WithTimeout(b.tab, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	if waitSelector != "" {
		actions = append(actions, chromedp.WaitReady(waitSelector, chromedp.ByQuery))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	start := time.Now()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}
	b.logger.Debug("rendered page", "url", url, "bytes", len(html), "duration", time.Since(start))
	return html, nil
}

// Close shuts the tab and the browser process down.
func (b *ChromeBrowser) Close() error {
	b.tabCancel()
	b.allocCancel()
	return nil
}
