package jobindex

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/jonathan/comp-collector/internal/fetch"
	"github.com/jonathan/comp-collector/internal/logging"
)

// Group is one occupation group landing page.
type Group struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

var (
	groupContainerClass = regexp.MustCompile(`(?i)group|occupation|category`)
	leafSkipWords       = []string{"image", "back to", "home", "print"}
)

// Crawler discovers the index by walking the statistics site: the home page
// lists occupation groups and each group page lists its occupations.
type Crawler struct {
	baseURL   *url.URL
	prefix    string
	tables    *Tables
	limiter   *fetch.HostLimiter
	userAgent string
	log       *logging.Logger
	// probe checks fallback group pages; defaults to a HEAD request.
	probe func(ctx context.Context, url string) bool
}

// CrawlerOption configures a Crawler.
type CrawlerOption func(*Crawler)

// WithLimiter throttles requests per host.
func WithLimiter(l *fetch.HostLimiter) CrawlerOption {
	return func(c *Crawler) { c.limiter = l }
}

// WithCrawlLogger sets the crawler logger.
func WithCrawlLogger(log *logging.Logger) CrawlerOption {
	return func(c *Crawler) { c.log = log }
}

// WithTables overrides the fallback group list source.
func WithTables(t *Tables) CrawlerOption {
	return func(c *Crawler) { c.tables = t }
}

// WithUserAgent sets the crawl user agent.
func WithUserAgent(ua string) CrawlerOption {
	return func(c *Crawler) { c.userAgent = ua }
}

// NewCrawler returns a crawler rooted at baseURL, e.g. https://www.bls.gov/ooh.
func NewCrawler(baseURL string, opts ...CrawlerOption) (*Crawler, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid index base URL %q", baseURL)
	}
	c := &Crawler{
		baseURL:   u,
		prefix:    u.Path + "/",
		userAgent: fetch.DefaultUserAgent,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tables == nil {
		c.tables = DefaultTables()
	}
	if c.limiter == nil {
		c.limiter = fetch.NewHostLimiter(0, 1)
	}
	if c.probe == nil {
		c.probe = func(ctx context.Context, u string) bool {
			opts := fetch.DefaultOptions()
			opts.UserAgent = c.userAgent
			opts.Limiter = c.limiter
			return fetch.Exists(ctx, u, opts)
		}
	}
	return c, nil
}

// HomeURL is the page listing occupation groups.
func (c *Crawler) HomeURL() string {
	return c.baseURL.String() + "/home.htm"
}

func (c *Crawler) collector(ctx context.Context) *colly.Collector {
	col := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(c.userAgent),
	)
	col.OnRequest(func(r *colly.Request) {
		if err := c.limiter.Wait(ctx, r.URL.Host); err != nil {
			r.Abort()
		}
	})
	return col
}

// Discover implements Discoverer.
func (c *Crawler) Discover(ctx context.Context) ([]Entry, error) {
	groups, err := c.Groups(ctx)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no occupation groups discovered")
	}

	var entries []Entry
	seen := make(map[string]bool)
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		leaves, err := c.Occupations(ctx, g)
		if err != nil {
			c.log.Warn("failed to list occupation group", "group", g.Name, "error", err)
			continue
		}
		for _, e := range leaves {
			if seen[e.URL] {
				continue
			}
			seen[e.URL] = true
			entries = append(entries, e)
		}
	}
	c.log.Info("job index discovered", "groups", len(groups), "entries", len(entries))
	return entries, nil
}

// Groups lists occupation groups from the home page. Direct group links are
// preferred; if none exist, links inside group-like containers are used; if
// still none, the configured fallback groups are probed.
func (c *Crawler) Groups(ctx context.Context) ([]Group, error) {
	var doc *goquery.Selection
	col := c.collector(ctx)
	col.OnHTML("html", func(e *colly.HTMLElement) {
		doc = e.DOM
	})
	if err := col.Visit(c.HomeURL()); err != nil {
		return nil, fmt.Errorf("failed to load occupation home page: %w", err)
	}

	var groups []Group
	if doc != nil {
		groups = c.directGroups(doc)
		if len(groups) == 0 {
			c.log.Debug("no direct group links, trying group containers")
			groups = c.containerGroups(doc)
		}
	}
	if len(groups) == 0 {
		c.log.Debug("no group containers, probing fallback groups")
		groups = c.fallbackGroups(ctx)
	}
	return groups, nil
}

func (c *Crawler) directGroups(doc *goquery.Selection) []Group {
	var groups []Group
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.HasPrefix(href, c.prefix) || !strings.HasSuffix(href, "/home.htm") {
			return
		}
		if href == c.prefix+"home.htm" || strings.Count(href, "/") != strings.Count(c.prefix, "/")+1 {
			return
		}
		name := strings.TrimSuffix(strings.TrimPrefix(href, c.prefix), "/home.htm")
		groups = append(groups, Group{Name: name, Title: linkText(a), URL: c.resolve(href)})
	})
	return groups
}

func (c *Crawler) containerGroups(doc *goquery.Selection) []Group {
	var groups []Group
	seen := make(map[string]bool)
	doc.Find("div[class], section[class], ul[class]").Each(func(_ int, box *goquery.Selection) {
		class, _ := box.Attr("class")
		if !groupContainerClass.MatchString(class) {
			return
		}
		box.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			title := linkText(a)
			if !strings.Contains(href, c.prefix) || !strings.Contains(href, "home.htm") ||
				href == c.prefix+"home.htm" || len(title) <= 5 {
				return
			}
			parts := strings.Split(href, c.prefix)
			name := strings.Replace(parts[len(parts)-1], "/home.htm", "", 1)
			if name == "" || seen[name] {
				return
			}
			seen[name] = true
			groups = append(groups, Group{Name: name, Title: title, URL: c.resolve(href)})
		})
	})
	return groups
}

func (c *Crawler) fallbackGroups(ctx context.Context) []Group {
	var groups []Group
	for _, name := range c.tables.FallbackGroups {
		u := c.baseURL.String() + "/" + name + "/home.htm"
		if !c.probe(ctx, u) {
			continue
		}
		groups = append(groups, Group{Name: name, Title: groupTitle(name), URL: u})
	}
	return groups
}

// Occupations lists the occupation pages linked from a group page.
func (c *Crawler) Occupations(ctx context.Context, g Group) ([]Entry, error) {
	groupPrefix := c.prefix + g.Name + "/"
	groupHome := groupPrefix + "home.htm"

	var entries []Entry
	col := c.collector(ctx)
	col.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Attr("href")
		title := linkText(e.DOM)
		if !strings.HasPrefix(href, groupPrefix) || !strings.HasSuffix(href, ".htm") || href == groupHome {
			return
		}
		if len(title) <= 3 || containsAny(strings.ToLower(title), leafSkipWords) {
			return
		}
		entries = append(entries, Entry{
			Title:      title,
			URL:        e.Request.AbsoluteURL(href),
			GroupID:    g.Name,
			GroupTitle: g.Title,
		})
	})
	if err := col.Visit(g.URL); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Crawler) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return c.baseURL.ResolveReference(ref).String()
}

func linkText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// groupTitle turns "arts-and-design" into "Arts And Design".
func groupTitle(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
