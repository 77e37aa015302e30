package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserOptions configures a headless browser session.
type BrowserOptions struct {
	Headless  bool
	UserAgent string
	// Timeout bounds the whole session; zero means no extra deadline.
	Timeout time.Duration
}

// DefaultBrowserOptions returns options for an unattended headless session.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		Headless:  true,
		UserAgent: DefaultUserAgent,
		Timeout:   3 * time.Minute,
	}
}

// NewBrowser starts an exclusive browser session. The returned cancel func
// closes the tab, the browser process, and the allocator; callers must
// defer it immediately so the session is released on every exit path.
func NewBrowser(ctx context.Context, opts BrowserOptions) (context.Context, context.CancelFunc) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	cancelTimeout := context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		browserCtx, cancelTimeout = context.WithTimeout(browserCtx, opts.Timeout)
	}

	return browserCtx, func() {
		cancelTimeout()
		cancelBrowser()
		cancelAlloc()
	}
}

// WithBrowser renders a page in a fresh headless browser and returns the
// rendered HTML. Requires Chrome/Chromium to be installed.
func WithBrowser(ctx context.Context, url string, opts BrowserOptions) (string, error) {
	browserCtx, release := NewBrowser(ctx, opts)
	defer release()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	return html, nil
}
