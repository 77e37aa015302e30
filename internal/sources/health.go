package sources

import (
	"context"
	"time"

	"github.com/jonathan/comp-collector/internal/types"
)

// Status is an adapter health state.
type Status string

// Health states.
const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Health is the response of an adapter health check.
type Health struct {
	Source    string         `json:"source"`
	Status    Status         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}

// Source names used in logs, metrics, and responses.
const (
	NameStats    = "bls"
	NameCompDB   = "salary"
	NameJobBoard = "scraping"
)

// Stats looks a title up on the statistics site.
type Stats interface {
	Search(ctx context.Context, title, location string) Result[types.StatsMatch]
	Health(ctx context.Context) Health
}

// CompDB runs the compensation-database wizard.
type CompDB interface {
	Fetch(ctx context.Context, req types.CompDBRequest) Result[types.CompTable]
	EducationLevels() []string
	Health(ctx context.Context) Health
}

// JobBoard scrapes postings from the job board.
type JobBoard interface {
	Scrape(ctx context.Context, title, location string, maxResults int) Result[[]types.JobPosting]
	Health(ctx context.Context) Health
}

// Set groups the three adapters.
type Set struct {
	Stats    Stats
	CompDB   CompDB
	JobBoard JobBoard
}

// CheckAll runs every adapter's health check. Missing adapters report
// unhealthy.
func (s Set) CheckAll(ctx context.Context) []Health {
	out := make([]Health, 0, 3)
	out = append(out, check(ctx, NameStats, s.Stats))
	out = append(out, check(ctx, NameCompDB, s.CompDB))
	out = append(out, check(ctx, NameJobBoard, s.JobBoard))
	return out
}

type healthChecker interface {
	Health(ctx context.Context) Health
}

func check(ctx context.Context, name string, c healthChecker) Health {
	if c == nil {
		return Health{Source: name, Status: StatusUnhealthy, Message: "source not configured", CheckedAt: time.Now()}
	}
	return c.Health(ctx)
}
