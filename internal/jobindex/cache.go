// Package jobindex keeps an in-memory index of canonical occupation titles
// crawled from the statistics site and resolves free-text titles against it.
package jobindex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonathan/comp-collector/internal/logging"
)

// DefaultTTL is how long a discovered index stays fresh.
const DefaultTTL = 24 * time.Hour

// ErrEmpty is returned when no index could be built.
var ErrEmpty = errors.New("job index is empty")

// Entry is one canonical title.
type Entry struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	GroupID    string `json:"group"`
	GroupTitle string `json:"group_title"`
}

// Discoverer builds a complete index in one pass.
type Discoverer interface {
	Discover(ctx context.Context) ([]Entry, error)
}

// DiscovererFunc adapts a function to Discoverer.
type DiscovererFunc func(ctx context.Context) ([]Entry, error)

// Discover calls f.
func (f DiscovererFunc) Discover(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

type snapshot struct {
	entries     []Entry
	refreshedAt time.Time
}

// Cache holds the current index. Readers always see one complete snapshot;
// refreshes build a new snapshot and swap it in.
type Cache struct {
	discoverer Discoverer
	matcher    *Matcher
	ttl        time.Duration
	now        func() time.Time
	log        *logging.Logger

	current   atomic.Pointer[snapshot]
	refreshMu sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the refresh interval.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// WithMatcher sets the matcher used by Lookup.
func WithMatcher(m *Matcher) Option {
	return func(c *Cache) { c.matcher = m }
}

// New creates an empty cache backed by discoverer.
func New(discoverer Discoverer, opts ...Option) *Cache {
	c := &Cache{
		discoverer: discoverer,
		ttl:        DefaultTTL,
		now:        time.Now,
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.matcher == nil {
		c.matcher = NewMatcher(nil)
	}
	c.current.Store(&snapshot{})
	return c
}

// NeedsUpdate reports whether the index is empty or older than the TTL.
func (c *Cache) NeedsUpdate() bool {
	return c.stale(c.current.Load())
}

func (c *Cache) stale(s *snapshot) bool {
	return len(s.entries) == 0 || c.now().Sub(s.refreshedAt) > c.ttl
}

// Refresh runs discovery and swaps in the result. On failure, or when
// discovery finds nothing, the previous index is kept.
func (c *Cache) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Cache) refreshLocked(ctx context.Context) error {
	started := c.now()
	entries, err := c.discoverer.Discover(ctx)
	if err != nil {
		c.log.Warn("job index refresh failed, keeping previous index", "error", err)
		return fmt.Errorf("job index refresh: %w", err)
	}
	if len(entries) == 0 {
		c.log.Warn("job index refresh discovered nothing, keeping previous index")
		return ErrEmpty
	}

	fresh := make([]Entry, len(entries))
	copy(fresh, entries)
	c.current.Store(&snapshot{entries: fresh, refreshedAt: c.now()})
	c.log.Info("job index refreshed", "entries", len(fresh), "took", c.now().Sub(started).String())
	return nil
}

// Load replaces the index with entries as if discovered now.
func (c *Cache) Load(entries []Entry) {
	fresh := make([]Entry, len(entries))
	copy(fresh, entries)
	c.current.Store(&snapshot{entries: fresh, refreshedAt: c.now()})
}

// Entries returns the current index, refreshing first when stale. A failed
// refresh still returns the previous index if there is one.
func (c *Cache) Entries(ctx context.Context) ([]Entry, error) {
	if c.NeedsUpdate() {
		c.refreshMu.Lock()
		// Another caller may have refreshed while we waited.
		if c.NeedsUpdate() {
			_ = c.refreshLocked(ctx)
		}
		c.refreshMu.Unlock()
	}
	s := c.current.Load()
	if len(s.entries) == 0 {
		return nil, ErrEmpty
	}
	return s.entries, nil
}

// LookupResult is the outcome of resolving a title.
type LookupResult struct {
	Match        Match
	Found        bool
	Alternatives []Scored
}

// Lookup resolves title against the (lazily refreshed) index.
func (c *Cache) Lookup(ctx context.Context, title string) (LookupResult, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return LookupResult{}, err
	}
	if m, ok := c.matcher.Best(entries, title); ok {
		return LookupResult{Match: m, Found: true}, nil
	}
	return LookupResult{Alternatives: Alternatives(entries, title)}, nil
}

// Status describes the cache for health reporting.
type Status struct {
	Size          int        `json:"job_index_size"`
	LastRefreshed *time.Time `json:"last_updated"`
	NeedsUpdate   bool       `json:"needs_update"`
}

// Status returns the current cache status.
func (c *Cache) Status() Status {
	s := c.current.Load()
	st := Status{Size: len(s.entries), NeedsUpdate: c.stale(s)}
	if !s.refreshedAt.IsZero() {
		t := s.refreshedAt
		st.LastRefreshed = &t
	}
	return st
}
