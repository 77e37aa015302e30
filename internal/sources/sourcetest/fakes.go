// Package sourcetest provides in-memory source adapters for tests.
package sourcetest

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/comp-collector/internal/sources"
	"github.com/jonathan/comp-collector/internal/types"
)

// Calls counts adapter invocations. Safe for concurrent use.
type Calls struct {
	mu sync.Mutex
	n  int
}

func (c *Calls) inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

// Count returns the number of recorded calls.
func (c *Calls) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func healthy(name string) sources.Health {
	return sources.Health{Source: name, Status: sources.StatusHealthy, CheckedAt: time.Now()}
}

// Stats is a canned statistics adapter.
type Stats struct {
	Calls
	Result sources.Result[types.StatsMatch]
}

// Search returns the canned result.
func (s *Stats) Search(context.Context, string, string) sources.Result[types.StatsMatch] {
	s.inc()
	return s.Result
}

// Health reports healthy.
func (s *Stats) Health(context.Context) sources.Health { return healthy(sources.NameStats) }

// CompDB is a canned compensation-database adapter.
type CompDB struct {
	Calls
	Result sources.Result[types.CompTable]

	reqMu sync.Mutex
	last  types.CompDBRequest
}

// Fetch records the request and returns the canned result.
func (c *CompDB) Fetch(_ context.Context, req types.CompDBRequest) sources.Result[types.CompTable] {
	c.inc()
	c.reqMu.Lock()
	c.last = req
	c.reqMu.Unlock()
	return c.Result
}

// LastRequest returns the most recent Fetch request.
func (c *CompDB) LastRequest() types.CompDBRequest {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()
	return c.last
}

// EducationLevels returns a short fixed list.
func (c *CompDB) EducationLevels() []string {
	return []string{"High School", "Bachelor's", "Master's"}
}

// Health reports healthy.
func (c *CompDB) Health(context.Context) sources.Health { return healthy(sources.NameCompDB) }

// JobBoard is a canned job-board adapter.
type JobBoard struct {
	Calls
	Result sources.Result[[]types.JobPosting]
}

// Scrape returns at most maxResults of the canned postings.
func (j *JobBoard) Scrape(_ context.Context, _, _ string, maxResults int) sources.Result[[]types.JobPosting] {
	j.inc()
	if postings, ok := j.Result.Payload(); ok && maxResults > 0 && len(postings) > maxResults {
		return sources.Success(postings[:maxResults])
	}
	return j.Result
}

// Health reports healthy.
func (j *JobBoard) Health(context.Context) sources.Health { return healthy(sources.NameJobBoard) }

// Fixture returns adapters with realistic successful results for a
// software engineer search in Seattle.
func Fixture() (*Stats, *CompDB, *JobBoard) {
	median := 132270.0
	stats := &Stats{Result: sources.Success(types.StatsMatch{
		JobTitle:     "Software Engineer",
		MatchedTitle: "Software Developers",
		URL:          "https://stats.test/ooh/computer-and-information-technology/software-developers.htm",
		Group:        "computer-and-information-technology",
		MedianPay:    "$132,270 per year",
		MedianAnnual: &median,
		MatchScore:   90,
		CostOfLiving: &types.CostOfLiving{Location: "Seattle", Success: true, ComparisonToNational: "52% higher"},
	})}
	comp := &CompDB{Result: sources.Success(types.CompTable{
		JobTitle: "Software Engineer I",
		City:     "Seattle",
		Headers:  []string{"Percentile", "Base Salary"},
		Rows:     [][]string{{"10th", "$98,000"}, {"90th", "$165,000"}},
	})}
	board := &JobBoard{Result: sources.Success([]types.JobPosting{
		{Title: "Senior Software Engineer", Company: "Acme", Location: "Seattle, WA", SalaryText: "$150,000 - $190,000 a year", ExperienceText: "7+ years experience", JobKey: "a1"},
		{Title: "Software Engineer I", Company: "Beta", Location: "Seattle, WA", SalaryText: "$45 - $55 an hour", ExperienceText: "Entry level", JobKey: "b2"},
	})}
	return stats, comp, board
}

// Set bundles adapters into a sources.Set.
func Set(stats *Stats, comp *CompDB, board *JobBoard) sources.Set {
	return sources.Set{Stats: stats, CompDB: comp, JobBoard: board}
}
