package jobboard

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jonathan/comp-collector/internal/fetch"
)

// Browser is the tab the adapter navigates.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	Location(ctx context.Context) (string, error)
	// ClearStorage drops cookies and local/session storage.
	ClearStorage(ctx context.Context) error
	Eval(ctx context.Context, script string) error
}

// Launcher opens one exclusive browser session per scrape.
type Launcher interface {
	Launch(ctx context.Context) (Browser, func(), error)
}

// ChromeLauncher starts a local Chrome through chromedp.
type ChromeLauncher struct {
	Browser       fetch.BrowserOptions
	ActionTimeout time.Duration
}

// NewChromeLauncher returns a launcher with a 60s page load timeout.
func NewChromeLauncher(headless bool) *ChromeLauncher {
	opts := fetch.DefaultBrowserOptions()
	opts.Headless = headless
	opts.Timeout = 10 * time.Minute
	return &ChromeLauncher{Browser: opts, ActionTimeout: 60 * time.Second}
}

// Launch implements Launcher.
func (l *ChromeLauncher) Launch(ctx context.Context) (Browser, func(), error) {
	browserCtx, release := fetch.NewBrowser(ctx, l.Browser)
	if err := chromedp.Run(browserCtx); err != nil {
		release()
		return nil, func() {}, fmt.Errorf("failed to start browser: %w", err)
	}
	return &chromeTab{ctx: browserCtx, timeout: l.ActionTimeout}, release, nil
}

type chromeTab struct {
	ctx     context.Context
	timeout time.Duration
}

func (t *chromeTab) run(ctx context.Context, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(t.ctx, t.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(tctx, actions...)
}

func (t *chromeTab) Navigate(ctx context.Context, url string) error {
	return t.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

func (t *chromeTab) HTML(ctx context.Context) (string, error) {
	var html string
	err := t.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (t *chromeTab) Location(ctx context.Context) (string, error) {
	var loc string
	err := t.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (t *chromeTab) ClearStorage(ctx context.Context) error {
	return t.run(ctx,
		network.ClearBrowserCookies(),
		chromedp.Evaluate(`window.localStorage.clear(); window.sessionStorage.clear();`, nil),
	)
}

func (t *chromeTab) Eval(ctx context.Context, script string) error {
	return t.run(ctx, chromedp.Evaluate(script, nil))
}
