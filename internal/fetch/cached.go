package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultPageCacheTTL is how long fetched pages are reused.
const DefaultPageCacheTTL = 6 * time.Hour

// CachedFetcherConfig configures a CachedFetcher. Zero fields take defaults.
type CachedFetcherConfig struct {
	CacheTTL time.Duration
	// SkipCache disables reuse but still coalesces concurrent fetches.
	SkipCache bool
	Options   *Options
	Now       func() time.Time
}

// CachedFetcher serves pages from memory while they are fresh. Concurrent
// fetches of one URL share a single request; failures are never stored.
type CachedFetcher struct {
	opts   *Options
	ttl    time.Duration
	bypass bool
	now    func() time.Time
	group  singleflight.Group

	mu    sync.RWMutex
	pages map[string]cachedPage
}

type cachedPage struct {
	res     Result
	expires time.Time
}

// CachedResult is a Result plus whether it came from memory.
type CachedResult struct {
	*Result
	FromCache bool
}

// NewCachedFetcher builds a fetcher from cfg, which may be nil.
func NewCachedFetcher(cfg *CachedFetcherConfig) *CachedFetcher {
	if cfg == nil {
		cfg = &CachedFetcherConfig{}
	}
	f := &CachedFetcher{
		opts:   cfg.Options,
		ttl:    cfg.CacheTTL,
		bypass: cfg.SkipCache,
		now:    cfg.Now,
		pages:  make(map[string]cachedPage),
	}
	if f.opts == nil {
		f.opts = DefaultOptions()
	}
	if f.ttl <= 0 {
		f.ttl = DefaultPageCacheTTL
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

func (f *CachedFetcher) lookup(raw string) (Result, bool) {
	if f.bypass {
		return Result{}, false
	}
	f.mu.RLock()
	page, ok := f.pages[raw]
	f.mu.RUnlock()
	if !ok || f.now().After(page.expires) {
		return Result{}, false
	}
	return page.res, true
}

// Fetch returns the page for raw, from memory when a fresh copy exists.
func (f *CachedFetcher) Fetch(ctx context.Context, raw string) (*CachedResult, error) {
	if res, ok := f.lookup(raw); ok {
		return &CachedResult{Result: &res, FromCache: true}, nil
	}
	v, err, _ := f.group.Do(raw, func() (any, error) {
		res, err := URL(ctx, raw, f.opts)
		if err != nil {
			return nil, err
		}
		if !f.bypass {
			f.mu.Lock()
			f.pages[raw] = cachedPage{res: *res, expires: f.now().Add(f.ttl)}
			f.mu.Unlock()
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	res := *v.(*Result)
	return &CachedResult{Result: &res}, nil
}

// Len reports how many pages are held, fresh or not.
func (f *CachedFetcher) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.pages)
}

// Purge drops every cached page.
func (f *CachedFetcher) Purge() {
	f.mu.Lock()
	f.pages = make(map[string]cachedPage)
	f.mu.Unlock()
}
