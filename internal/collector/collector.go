// Package collector fans a search request out to every source adapter and
// gathers their results. A failing or panicking adapter never fails the
// collection as a whole.
package collector

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/comp-collector/internal/logging"
	"github.com/jonathan/comp-collector/internal/metrics"
	"github.com/jonathan/comp-collector/internal/sources"
	"github.com/jonathan/comp-collector/internal/types"
)

// Collection holds one result per adapter.
type Collection struct {
	Stats  sources.Result[types.StatsMatch]   `json:"bls"`
	CompDB sources.Result[types.CompTable]    `json:"salary"`
	Jobs   sources.Result[[]types.JobPosting] `json:"scraping"`
}

// Failures maps each failed source name to its reason.
func (c Collection) Failures() map[string]string {
	out := map[string]string{}
	if !c.Stats.OK() {
		out[sources.NameStats] = c.Stats.Reason()
	}
	if !c.CompDB.OK() {
		out[sources.NameCompDB] = c.CompDB.Reason()
	}
	if !c.Jobs.OK() {
		out[sources.NameJobBoard] = c.Jobs.Reason()
	}
	return out
}

// SourceDone is called as each adapter finishes. Calls may come from
// several goroutines at once.
type SourceDone func(source string, ok bool, elapsed time.Duration)

// Collector runs the three adapters concurrently.
type Collector struct {
	set     sources.Set
	log     *logging.Logger
	metrics *metrics.Metrics
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Collector) { c.log = l }
}

// WithMetrics records per-source outcomes and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// New creates a collector over the adapter set.
func New(set sources.Set, opts ...Option) *Collector {
	c := &Collector{set: set, log: logging.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect queries every adapter and waits for all of them. It adds no
// deadline of its own; cancellation comes from ctx.
func (c *Collector) Collect(ctx context.Context, req types.SearchRequest, done SourceDone) Collection {
	req = req.WithDefaults()
	var out Collection
	var g errgroup.Group

	g.Go(func() error {
		out.Stats = call(c, sources.NameStats, done, func() sources.Result[types.StatsMatch] {
			if c.set.Stats == nil {
				return sources.Failure[types.StatsMatch]("source not configured")
			}
			return c.set.Stats.Search(ctx, req.JobTitle, req.Location)
		})
		return nil
	})
	g.Go(func() error {
		out.CompDB = call(c, sources.NameCompDB, done, func() sources.Result[types.CompTable] {
			if c.set.CompDB == nil {
				return sources.Failure[types.CompTable]("source not configured")
			}
			return c.set.CompDB.Fetch(ctx, CompDBRequest(req))
		})
		return nil
	})
	g.Go(func() error {
		out.Jobs = call(c, sources.NameJobBoard, done, func() sources.Result[[]types.JobPosting] {
			if c.set.JobBoard == nil {
				return sources.Failure[[]types.JobPosting]("source not configured")
			}
			return c.set.JobBoard.Scrape(ctx, req.JobTitle, req.Location, req.MaxResults)
		})
		return nil
	})

	// every goroutine returns nil; Wait is only a barrier
	_ = g.Wait()

	if failed := out.Failures(); len(failed) > 0 {
		c.log.Warn("collection finished with failures", "failed", failed)
	} else {
		c.log.Info("collection finished", "job_title", req.JobTitle, "location", req.Location)
	}
	return out
}

// CompDBRequest maps a search request onto the wizard parameters.
func CompDBRequest(req types.SearchRequest) types.CompDBRequest {
	return types.CompDBRequest{
		JobTitle:        req.JobTitle,
		City:            req.Location,
		EducationLevel:  req.EducationLevel,
		ExperienceYears: types.IntPtr(req.ExperienceOr(types.DefaultExperienceYears)),
		Industry:        req.Industry,
		CompanySize:     req.CompanySize,
	}.WithDefaults()
}

func call[T any](c *Collector, source string, done SourceDone, fn func() sources.Result[T]) (res sources.Result[T]) {
	started := time.Now()
	outcome := metrics.OutcomeSuccess

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("source adapter panicked", "source", source, "panic", r)
			res = sources.Failure[T](fmt.Sprintf("%s adapter panicked: %v", source, r))
			outcome = metrics.OutcomePanic
		}
		elapsed := time.Since(started)
		c.metrics.ObserveSource(source, outcome, elapsed)
		c.log.Info("source finished", "source", source, "ok", res.OK(), "outcome", outcome, "elapsed", elapsed.Round(time.Millisecond).String())
		if done != nil {
			done(source, res.OK(), elapsed)
		}
	}()

	res = fn()
	if !res.OK() {
		outcome = metrics.OutcomeFailure
		if _, ok := res.Partial(); ok {
			outcome = metrics.OutcomePartial
		}
	}
	return res
}
