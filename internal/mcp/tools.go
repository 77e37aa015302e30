package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonathan/comp-collector/internal/logging"
	"github.com/jonathan/comp-collector/internal/sources"
	"github.com/jonathan/comp-collector/internal/types"
)

// Tool names.
const (
	ToolStatsSearch     = "bls_search_job"
	ToolStatsHealth     = "bls_health_check"
	ToolCompDBScrape    = "salary_scrape"
	ToolCompDBEducation = "salary_education_levels"
	ToolCompDBHealth    = "salary_health_check"
	ToolJobsScrape      = "jobs_scrape"
	ToolJobsHealth      = "jobs_health_check"
)

// StatsSearchParams defines the arguments for bls_search_job.
type StatsSearchParams struct {
	JobTitle string `json:"job_title" jsonschema:"Job title to look up"`
	Location string `json:"location,omitempty" jsonschema:"Location for the cost-of-living comparison"`
}

// CompDBScrapeParams defines the arguments for salary_scrape.
type CompDBScrapeParams struct {
	JobTitle        string `json:"job_title" jsonschema:"Job title to search for"`
	City            string `json:"city" jsonschema:"City, optionally with state"`
	EducationLevel  string `json:"education_level,omitempty" jsonschema:"Education level from salary_education_levels"`
	ExperienceYears *int   `json:"experience_years,omitempty" jsonschema:"Years of experience"`
	Industry        string `json:"industry,omitempty" jsonschema:"Industry filter"`
	CompanySize     string `json:"company_size,omitempty" jsonschema:"Company size filter"`
}

// JobsScrapeParams defines the arguments for jobs_scrape.
type JobsScrapeParams struct {
	JobTitle   string `json:"job_title" jsonschema:"Job title to search for"`
	Location   string `json:"location" jsonschema:"Location to search in"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of postings"`
}

// NoParams is the argument type of tools without inputs.
type NoParams struct{}

// RegisterTools adds the seven source tools to server.
func RegisterTools(server *sdkmcp.Server, set sources.Set, log *logging.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	t := &toolset{set: set, log: log}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolStatsSearch,
		Description: "Look up a job title on the labor statistics site and return the median pay and cost of living",
	}, t.statsSearch)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolStatsHealth,
		Description: "Check the labor statistics adapter",
	}, t.statsHealth)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolCompDBScrape,
		Description: "Run the compensation database wizard and return the market data table",
	}, t.compDBScrape)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolCompDBEducation,
		Description: "List the education levels the compensation database accepts",
	}, t.compDBEducation)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolCompDBHealth,
		Description: "Check the compensation database adapter",
	}, t.compDBHealth)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolJobsScrape,
		Description: "Scrape job postings from the job board",
	}, t.jobsScrape)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolJobsHealth,
		Description: "Check the job board adapter",
	}, t.jobsHealth)
}

type toolset struct {
	set sources.Set
	log *logging.Logger
}

func (t *toolset) statsSearch(ctx context.Context, _ *sdkmcp.CallToolRequest, p *StatsSearchParams) (*sdkmcp.CallToolResult, any, error) {
	if t.set.Stats == nil {
		return notConfigured(sources.NameStats), nil, nil
	}
	t.log.Info("tool call", "tool", ToolStatsSearch, "job_title", p.JobTitle)
	return jsonResult(t.set.Stats.Search(ctx, p.JobTitle, p.Location))
}

func (t *toolset) statsHealth(ctx context.Context, _ *sdkmcp.CallToolRequest, _ *NoParams) (*sdkmcp.CallToolResult, any, error) {
	if t.set.Stats == nil {
		return notConfigured(sources.NameStats), nil, nil
	}
	return jsonResult(t.set.Stats.Health(ctx))
}

func (t *toolset) compDBScrape(ctx context.Context, _ *sdkmcp.CallToolRequest, p *CompDBScrapeParams) (*sdkmcp.CallToolResult, any, error) {
	if t.set.CompDB == nil {
		return notConfigured(sources.NameCompDB), nil, nil
	}
	t.log.Info("tool call", "tool", ToolCompDBScrape, "job_title", p.JobTitle, "city", p.City)
	return jsonResult(t.set.CompDB.Fetch(ctx, types.CompDBRequest{
		JobTitle:        p.JobTitle,
		City:            p.City,
		EducationLevel:  p.EducationLevel,
		ExperienceYears: p.ExperienceYears,
		Industry:        p.Industry,
		CompanySize:     p.CompanySize,
	}))
}

func (t *toolset) compDBEducation(_ context.Context, _ *sdkmcp.CallToolRequest, _ *NoParams) (*sdkmcp.CallToolResult, any, error) {
	if t.set.CompDB == nil {
		return notConfigured(sources.NameCompDB), nil, nil
	}
	return jsonResult(map[string][]string{"education_levels": t.set.CompDB.EducationLevels()})
}

func (t *toolset) compDBHealth(ctx context.Context, _ *sdkmcp.CallToolRequest, _ *NoParams) (*sdkmcp.CallToolResult, any, error) {
	if t.set.CompDB == nil {
		return notConfigured(sources.NameCompDB), nil, nil
	}
	return jsonResult(t.set.CompDB.Health(ctx))
}

func (t *toolset) jobsScrape(ctx context.Context, _ *sdkmcp.CallToolRequest, p *JobsScrapeParams) (*sdkmcp.CallToolResult, any, error) {
	if t.set.JobBoard == nil {
		return notConfigured(sources.NameJobBoard), nil, nil
	}
	t.log.Info("tool call", "tool", ToolJobsScrape, "job_title", p.JobTitle, "location", p.Location)
	return jsonResult(t.set.JobBoard.Scrape(ctx, p.JobTitle, p.Location, p.MaxResults))
}

func (t *toolset) jobsHealth(ctx context.Context, _ *sdkmcp.CallToolRequest, _ *NoParams) (*sdkmcp.CallToolResult, any, error) {
	if t.set.JobBoard == nil {
		return notConfigured(sources.NameJobBoard), nil, nil
	}
	return jsonResult(t.set.JobBoard.Health(ctx))
}

// textResult returns a text-only ToolResult
func textResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: msg},
		},
	}
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return textResult(string(data)), nil, nil
}

func notConfigured(source string) *sdkmcp.CallToolResult {
	res := textResult(fmt.Sprintf("source %s not configured", source))
	res.IsError = true
	return res
}
