package compdb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/jonathan/comp-collector/internal/fetch"
)

// Page is the browser surface the wizard drives. Selectors may be CSS or
// XPath expressions.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, sel string) error
	Click(ctx context.Context, sel string) error
	// Type clears the field and types text, pressing Enter when submit is set.
	Type(ctx context.Context, sel, text string, submit bool) error
	// SetValue assigns an input's value and fires input/change/blur events.
	SetValue(ctx context.Context, sel, value string) error
	Attribute(ctx context.Context, sel, name string) (string, error)
	OuterHTML(ctx context.Context, sel string) (string, error)
	BodyText(ctx context.Context) (string, error)
}

// Launcher opens one exclusive browser session. The release func must be
// called exactly once.
type Launcher interface {
	Launch(ctx context.Context) (Page, func(), error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context) (Page, func(), error)

// Launch calls f.
func (f LauncherFunc) Launch(ctx context.Context) (Page, func(), error) {
	return f(ctx)
}

// ChromeLauncher starts a local Chrome through chromedp.
type ChromeLauncher struct {
	Browser fetch.BrowserOptions
	// ActionTimeout bounds every single wait or interaction.
	ActionTimeout time.Duration
}

// NewChromeLauncher returns a launcher with a 30s action timeout.
func NewChromeLauncher(headless bool) *ChromeLauncher {
	opts := fetch.DefaultBrowserOptions()
	opts.Headless = headless
	opts.Timeout = 5 * time.Minute
	return &ChromeLauncher{Browser: opts, ActionTimeout: 30 * time.Second}
}

// Launch implements Launcher.
func (l *ChromeLauncher) Launch(ctx context.Context) (Page, func(), error) {
	browserCtx, release := fetch.NewBrowser(ctx, l.Browser)
	// Run with no actions starts the browser so launch errors surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		release()
		return nil, func() {}, fmt.Errorf("failed to start browser: %w", err)
	}
	return &chromePage{ctx: browserCtx, timeout: l.ActionTimeout}, release, nil
}

type chromePage struct {
	ctx     context.Context
	timeout time.Duration
}

// run executes actions in the browser tab, bounded by the caller's context
// and the action timeout.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(tctx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

func (p *chromePage) WaitVisible(ctx context.Context, sel string) error {
	return p.run(ctx, chromedp.WaitVisible(sel, chromedp.BySearch))
}

func (p *chromePage) Click(ctx context.Context, sel string) error {
	return p.run(ctx,
		chromedp.ScrollIntoView(sel, chromedp.BySearch),
		chromedp.Click(sel, chromedp.BySearch, chromedp.NodeVisible),
	)
}

func (p *chromePage) Type(ctx context.Context, sel, text string, submit bool) error {
	if submit {
		text += kb.Enter
	}
	return p.run(ctx,
		chromedp.WaitVisible(sel, chromedp.BySearch),
		chromedp.Clear(sel, chromedp.BySearch),
		chromedp.SendKeys(sel, text, chromedp.BySearch),
	)
}

func (p *chromePage) SetValue(ctx context.Context, sel, value string) error {
	script := fmt.Sprintf(`(function(){
		let el = null;
		try { el = document.querySelector(%[1]s); } catch (e) {}
		if (!el) {
			try { el = document.evaluate(%[1]s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue; } catch (e) {}
		}
		if (!el) { return false; }
		el.value = %[2]s;
		for (const t of ['input', 'change', 'blur']) { el.dispatchEvent(new Event(t, {bubbles: true})); }
		return true;
	})()`, strconv.Quote(sel), strconv.Quote(value))
	var ok bool
	if err := p.run(ctx,
		chromedp.WaitVisible(sel, chromedp.BySearch),
		chromedp.Evaluate(script, &ok),
	); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("element %s not found", sel)
	}
	return nil
}

func (p *chromePage) Attribute(ctx context.Context, sel, name string) (string, error) {
	var value string
	var ok bool
	if err := p.run(ctx, chromedp.AttributeValue(sel, name, &value, &ok, chromedp.BySearch)); err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("attribute %s not present on %s", name, sel)
	}
	return value, nil
}

func (p *chromePage) OuterHTML(ctx context.Context, sel string) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML(sel, &html, chromedp.BySearch))
	return html, err
}

func (p *chromePage) BodyText(ctx context.Context) (string, error) {
	var text string
	err := p.run(ctx, chromedp.Text("body", &text, chromedp.ByQuery))
	return text, err
}
