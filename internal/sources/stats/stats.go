// Package stats is the statistics-site source adapter. It resolves a title
// against the job index, reads the median pay from the occupation page, and
// optionally attaches a cost-of-living comparison for the location.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/comp-collector/internal/fetch"
	"github.com/jonathan/comp-collector/internal/jobindex"
	"github.com/jonathan/comp-collector/internal/logging"
	"github.com/jonathan/comp-collector/internal/sources"
	"github.com/jonathan/comp-collector/internal/types"
)

// Failure reasons.
const (
	ReasonIndexEmpty = "Job index is empty. Please check BLS website accessibility."
	ReasonNoMatch    = "No good match found for the job title"
)

// Adapter implements sources.Stats.
type Adapter struct {
	index       *jobindex.Cache
	pages       *fetch.CachedFetcher
	costBaseURL string
	log         *logging.Logger
	now         func() time.Time
}

var _ sources.Stats = (*Adapter)(nil)

// Config configures the adapter.
type Config struct {
	// CostOfLivingBaseURL enables the cost-of-living section when set.
	CostOfLivingBaseURL string
	Fetch               *fetch.Options
	PageCacheTTL        time.Duration
	Logger              *logging.Logger
}

// New creates an adapter over index.
func New(index *jobindex.Cache, cfg Config) *Adapter {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	return &Adapter{
		index: index,
		pages: fetch.NewCachedFetcher(&fetch.CachedFetcherConfig{
			CacheTTL: cfg.PageCacheTTL,
			Options:  cfg.Fetch,
		}),
		costBaseURL: cfg.CostOfLivingBaseURL,
		log:         cfg.Logger.With("source", sources.NameStats),
		now:         time.Now,
	}
}

// Search resolves title and reads its median pay. location is optional and
// only drives the cost-of-living section.
func (a *Adapter) Search(ctx context.Context, title, location string) sources.Result[types.StatsMatch] {
	if err := ctx.Err(); err != nil {
		return sources.Failuref[types.StatsMatch]("search cancelled: %v", err)
	}

	res, err := a.index.Lookup(ctx, title)
	if errors.Is(err, jobindex.ErrEmpty) {
		return sources.Failure[types.StatsMatch](ReasonIndexEmpty)
	}
	if err != nil {
		return sources.Failuref[types.StatsMatch]("Error occurred during search: %v", err)
	}

	if !res.Found {
		partial := types.StatsMatch{JobTitle: title}
		for _, alt := range res.Alternatives {
			partial.Alternatives = append(partial.Alternatives, types.Alternative{
				Title: alt.Entry.Title,
				Score: alt.Score,
				URL:   alt.Entry.URL,
			})
		}
		a.log.Info("no statistics match", "title", title, "alternatives", len(partial.Alternatives))
		return sources.FailureWithPartial(ReasonNoMatch, partial)
	}

	entry := res.Match.Entry
	match := types.StatsMatch{
		JobTitle:     title,
		MatchedTitle: entry.Title,
		URL:          entry.URL,
		Group:        entry.GroupID,
		GroupTitle:   entry.GroupTitle,
		MedianPay:    types.MedianPayNotFound,
		MatchScore:   res.Match.Score,
	}
	if match.GroupTitle == "" {
		match.GroupTitle = match.Group
	}

	page, err := a.pages.Fetch(ctx, entry.URL)
	if err != nil {
		a.log.Warn("failed to fetch occupation page", "url", entry.URL, "error", err)
	} else if pay := ExtractMedianPay(page.HTML); pay != "" {
		match.MedianPay = pay
		if annual, ok := ParseMedianAnnual(pay); ok {
			match.MedianAnnual = &annual
		}
	}

	if location != "" && a.costBaseURL != "" {
		match.CostOfLiving = a.costOfLiving(ctx, location)
	}

	a.log.Info("statistics match", "title", title, "matched", entry.Title, "score", res.Match.Score, "median_pay", match.MedianPay)
	return sources.Success(match)
}

// Health reports the job index state.
func (a *Adapter) Health(_ context.Context) sources.Health {
	st := a.index.Status()
	h := sources.Health{
		Source:    sources.NameStats,
		Status:    sources.StatusHealthy,
		CheckedAt: a.now(),
		Details: map[string]any{
			"job_index_size": st.Size,
			"needs_update":   st.NeedsUpdate,
			"last_updated":   nil,
		},
	}
	if st.LastRefreshed != nil {
		h.Details["last_updated"] = st.LastRefreshed.Format(time.RFC3339)
	}
	if st.Size == 0 {
		h.Status = sources.StatusDegraded
		h.Message = "job index is empty"
	} else {
		h.Message = fmt.Sprintf("%d occupations indexed", st.Size)
	}
	return h
}
