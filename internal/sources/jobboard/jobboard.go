// Package jobboard is the job-board source adapter. It searches the board
// for every alias of a title, keeps postings whose titles are close to the
// alias set, and reads salary and experience from each posting.
package jobboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/comp-collector/internal/fetch"
	"github.com/jonathan/comp-collector/internal/logging"
	"github.com/jonathan/comp-collector/internal/sources"
	"github.com/jonathan/comp-collector/internal/types"
)

// DefaultMaxResults caps a scrape when the caller passes no limit.
const DefaultMaxResults = 10

// ErrNoListings is recorded when a results page has no job cards.
var ErrNoListings = errors.New("No job listings found on page")

// Config configures the adapter.
type Config struct {
	BaseURL string
	Board   *Board
	// Solver answers human-verification challenges; nil skips solving.
	Solver Solver

	NavAttempts      int
	NavBackoff       time.Duration
	DetailDelay      time.Duration
	ChallengeTimeout time.Duration
	PollInterval     time.Duration
	SiteKeyAttempts  int

	Logger *logging.Logger
}

// Adapter implements sources.JobBoard.
type Adapter struct {
	launcher Launcher
	cfg      Config
	base     *url.URL
	log      *logging.Logger
	now      func() time.Time
}

var _ sources.JobBoard = (*Adapter)(nil)

// New creates an adapter. Zero-valued timings get production defaults.
func New(launcher Launcher, cfg Config) (*Adapter, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid job board URL %q", cfg.BaseURL)
	}
	if cfg.Board == nil {
		cfg.Board = DefaultBoard()
	}
	if cfg.NavAttempts <= 0 {
		cfg.NavAttempts = 3
	}
	if cfg.ChallengeTimeout <= 0 {
		cfg.ChallengeTimeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.SiteKeyAttempts <= 0 {
		cfg.SiteKeyAttempts = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	return &Adapter{
		launcher: launcher,
		cfg:      cfg,
		base:     base,
		log:      cfg.Logger.With("source", sources.NameJobBoard),
		now:      time.Now,
	}, nil
}

// SearchURL is the results page for one phrasing, newest first.
func (a *Adapter) SearchURL(title, location string) string {
	return fmt.Sprintf("%s/jobs?q=%s&l=%s&sort=date", a.base.String(), url.QueryEscape(title), url.QueryEscape(location))
}

// DetailURL is the posting page for a job key.
func (a *Adapter) DetailURL(jobKey string) string {
	return a.base.String() + "/viewjob?jk=" + url.QueryEscape(jobKey)
}

// Scrape collects up to maxResults relevant postings across all aliases of
// title. Postings are deduplicated by job key or URL.
func (a *Adapter) Scrape(ctx context.Context, title, location string, maxResults int) (result sources.Result[[]types.JobPosting]) {
	started := a.now()
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	browser, release, err := a.launcher.Launch(ctx)
	if err != nil {
		a.log.Error("browser launch failed", "error", err)
		return sources.Failuref[[]types.JobPosting]("Failed to initialize browser: %v", err)
	}
	defer release()

	var postings []types.JobPosting
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("job board scrape panicked", "panic", r)
			result = sources.FailureWithPartial(fmt.Sprintf("job board scrape panicked: %v", r), postings)
		}
	}()

	allowed := a.cfg.Board.AllowedTitles(title)
	seen := make(map[string]bool)
	var errs []string
	for _, phrase := range a.cfg.Board.SearchTitles(title) {
		if len(postings) >= maxResults || ctx.Err() != nil {
			break
		}
		a.log.Info("searching job board", "phrase", phrase, "location", location, "allowed", allowed)
		found, err := a.scrapePhrase(ctx, browser, phrase, location, allowed, maxResults-len(postings), seen)
		postings = append(postings, found...)
		if err != nil {
			a.log.Warn("job board search failed", "phrase", phrase, "error", err)
			errs = append(errs, err.Error())
		}
	}

	elapsed := a.now().Sub(started).Round(10 * time.Millisecond)
	if len(postings) == 0 {
		reason := "no matching job postings found"
		if len(errs) > 0 {
			reason = strings.Join(errs, "; ")
		}
		if ctx.Err() != nil {
			reason = fmt.Sprintf("scrape cancelled: %v", ctx.Err())
		}
		a.log.Warn("job board scrape found nothing", "elapsed", elapsed.String(), "reason", reason)
		return sources.Failure[[]types.JobPosting](reason)
	}
	a.log.Info("job board scrape finished", "postings", len(postings), "errors", len(errs), "elapsed", elapsed.String())
	return sources.Success(postings)
}

func (a *Adapter) scrapePhrase(ctx context.Context, b Browser, phrase, location string, allowed []string, limit int, seen map[string]bool) ([]types.JobPosting, error) {
	searchURL := a.SearchURL(phrase, location)
	html, err := a.navigate(ctx, b, searchURL)
	if err != nil {
		return nil, err
	}

	if DetectChallenge(html) {
		if a.solveChallenge(ctx, b, html, searchURL) {
			a.log.Info("challenge resolved")
		} else {
			a.log.Warn("challenge handling failed, continuing anyway")
		}
		if fresh, err := b.HTML(ctx); err == nil {
			html = fresh
		}
	}

	cards := parseCards(html, a.cfg.Board.Selectors)
	if len(cards) == 0 {
		return nil, ErrNoListings
	}
	a.log.Debug("result cards found", "count", len(cards))

	var out []types.JobPosting
	for i, c := range cards {
		if len(out) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if !Relevant(c.Title, allowed) {
			a.log.Debug("skipped unrelated posting", "title", c.Title)
			continue
		}

		p := types.JobPosting{
			Title:          c.Title,
			Company:        c.Company,
			Location:       c.Location,
			PostedDate:     c.Posted,
			JobKey:         c.JobKey,
			SalaryText:     types.SalaryNotSpecified,
			ExperienceText: types.NotSpecified,
		}
		if c.Salary != "" {
			p.SalaryText = c.Salary
		}
		switch {
		case c.JobKey != "":
			p.URL = a.DetailURL(c.JobKey)
		case c.Link != "":
			p.URL = a.resolve(c.Link)
		}

		id := dedupeKey(p)
		if seen[id] {
			continue
		}
		seen[id] = true

		if c.JobKey != "" {
			if err := a.readDetail(ctx, b, &p); err != nil {
				a.log.Warn("failed to read posting detail", "index", i+1, "url", p.URL, "error", err)
			}
			if err := sleep(ctx, a.cfg.DetailDelay); err != nil {
				return append(out, p), err
			}
		}
		a.log.Debug("matched posting", "title", p.Title, "salary", p.SalaryText, "experience", p.ExperienceText)
		out = append(out, p)
	}
	return out, nil
}

func dedupeKey(p types.JobPosting) string {
	switch {
	case p.JobKey != "":
		return "jk:" + p.JobKey
	case p.URL != "":
		return "url:" + p.URL
	default:
		return "t:" + strings.ToLower(p.Title+"|"+p.Company+"|"+p.Location)
	}
}

func (a *Adapter) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return a.base.ResolveReference(ref).String()
}

// navigate loads u with retries. Landing on the board, or on a challenge
// page, counts as success.
func (a *Adapter) navigate(ctx context.Context, b Browser, u string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= a.cfg.NavAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, a.cfg.NavBackoff); err != nil {
				return "", err
			}
		}
		a.log.Debug("navigating", "url", u, "attempt", attempt, "of", a.cfg.NavAttempts)

		if err := b.ClearStorage(ctx); err != nil {
			a.log.Debug("failed to clear browser storage", "error", err)
		}
		if err := b.Navigate(ctx, u); err != nil {
			lastErr = err
			continue
		}
		html, err := b.HTML(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		loc, _ := b.Location(ctx)
		if strings.Contains(strings.ToLower(loc), strings.ToLower(a.base.Host)) || isChallengeText(html) {
			return html, nil
		}
		lastErr = fmt.Errorf("unexpected page loaded: %s", loc)
	}
	return "", fmt.Errorf("Failed to navigate to job board after %d attempts: %w", a.cfg.NavAttempts, lastErr)
}

// readDetail opens the posting page and fills salary, experience, and
// description.
func (a *Adapter) readDetail(ctx context.Context, b Browser, p *types.JobPosting) error {
	if err := b.Navigate(ctx, p.URL); err != nil {
		return err
	}
	html, err := b.HTML(ctx)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}

	sel := a.cfg.Board.Selectors
	if !p.HasSalary() {
		if s := detailSalary(doc, sel); s != "" {
			p.SalaryText = s
		}
	}
	description, err := fetch.ExtractMainText(html, sel.Description)
	if err != nil || description == "" {
		return err
	}
	p.Description = description
	if !p.HasSalary() {
		p.SalaryText = ExtractSalary(description)
	}
	p.ExperienceText = ExtractExperience(description)
	return nil
}

// solveChallenge finds the site key, asks the solver for a token, injects
// it, and waits for the challenge marker to disappear.
func (a *Adapter) solveChallenge(ctx context.Context, b Browser, html, pageURL string) bool {
	if a.cfg.Solver == nil {
		a.log.Warn("challenge detected but no solver configured")
		return false
	}

	key := SiteKey(html)
	for attempt := 1; key == "" && attempt < a.cfg.SiteKeyAttempts; attempt++ {
		if sleep(ctx, a.cfg.PollInterval) != nil {
			return false
		}
		if fresh, err := b.HTML(ctx); err == nil {
			key = SiteKey(fresh)
		}
	}
	if key == "" {
		a.log.Error("could not extract challenge site key")
		return false
	}

	token, err := a.cfg.Solver.Solve(ctx, key, pageURL)
	if err != nil {
		a.log.Error("challenge solver failed", "error", err)
		return false
	}
	if err := b.Eval(ctx, injectTokenScript(token)); err != nil {
		a.log.Error("failed to inject challenge token", "error", err)
		return false
	}

	deadline := a.now().Add(a.cfg.ChallengeTimeout)
	for {
		fresh, err := b.HTML(ctx)
		if err == nil && !strings.Contains(strings.ToLower(fresh), "cf-turnstile") {
			return true
		}
		if !a.now().Before(deadline) || sleep(ctx, a.cfg.PollInterval) != nil {
			return false
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Health checks that the board homepage shows its search box.
func (a *Adapter) Health(ctx context.Context) sources.Health {
	h := sources.Health{Source: sources.NameJobBoard, CheckedAt: a.now()}

	b, release, err := a.launcher.Launch(ctx)
	if err != nil {
		h.Status = sources.StatusUnhealthy
		h.Message = "Failed to initialize browser"
		return h
	}
	defer release()

	if err := b.Navigate(ctx, a.base.String()); err != nil {
		h.Status = sources.StatusUnhealthy
		h.Message = err.Error()
		return h
	}
	html, err := b.HTML(ctx)
	if err != nil {
		h.Status = sources.StatusUnhealthy
		h.Message = err.Error()
		return h
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		for _, sel := range a.cfg.Board.Selectors.SearchInput {
			if doc.Find(sel).Length() > 0 {
				h.Status = sources.StatusHealthy
				h.Message = "homepage loaded successfully"
				return h
			}
		}
	}
	h.Status = sources.StatusUnhealthy
	h.Message = "Could not find search elements on homepage"
	return h
}
