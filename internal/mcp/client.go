package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonathan/comp-collector/internal/logging"
	"github.com/jonathan/comp-collector/internal/sources"
	"github.com/jonathan/comp-collector/internal/types"
)

// educationTimeout bounds the education-level lookup, whose interface
// method takes no context.
const educationTimeout = 10 * time.Second

// Client calls the source tools of a remote MCP server.
type Client struct {
	session *sdkmcp.ClientSession
	log     *logging.Logger
}

// Dial connects to a streamable HTTP MCP endpoint, such as
// http://host:port/mcp/stream.
func Dial(ctx context.Context, endpoint string, log *logging.Logger) (*Client, error) {
	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "comp-collector",
		Version: Version,
	}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{Endpoint: endpoint}, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to sources at %s: %w", endpoint, err)
	}
	return NewClient(session, log), nil
}

// NewClient wraps an established session.
func NewClient(session *sdkmcp.ClientSession, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	return &Client{session: session, log: log}
}

// Close ends the session.
func (c *Client) Close() error {
	return c.session.Close()
}

// Sources returns adapters backed by the remote tools.
func (c *Client) Sources() sources.Set {
	return sources.Set{
		Stats:    &remoteStats{c},
		CompDB:   &remoteCompDB{c},
		JobBoard: &remoteJobBoard{c},
	}
}

// call runs a tool and returns its text payload.
func (c *Client) call(ctx context.Context, name string, args any) (string, error) {
	res, err := c.session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	var sb strings.Builder
	for _, content := range res.Content {
		if txt, ok := content.(*sdkmcp.TextContent); ok {
			sb.WriteString(txt.Text)
		}
	}
	if res.IsError {
		return "", fmt.Errorf("tool %s: %s", name, sb.String())
	}
	return sb.String(), nil
}

func callResult[T any](ctx context.Context, c *Client, name string, args any) sources.Result[T] {
	text, err := c.call(ctx, name, args)
	if err != nil {
		c.log.Warn("remote source call failed", "tool", name, "error", err)
		return sources.Failure[T](err.Error())
	}
	var out sources.Result[T]
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return sources.Failuref[T]("tool %s returned an invalid result: %v", name, err)
	}
	return out
}

func callHealth(ctx context.Context, c *Client, name, source string) sources.Health {
	text, err := c.call(ctx, name, NoParams{})
	var h sources.Health
	if err == nil {
		err = json.Unmarshal([]byte(text), &h)
	}
	if err != nil {
		return sources.Health{Source: source, Status: sources.StatusUnhealthy, Message: err.Error(), CheckedAt: time.Now()}
	}
	return h
}

type remoteStats struct{ c *Client }

func (r *remoteStats) Search(ctx context.Context, title, location string) sources.Result[types.StatsMatch] {
	return callResult[types.StatsMatch](ctx, r.c, ToolStatsSearch, StatsSearchParams{JobTitle: title, Location: location})
}

func (r *remoteStats) Health(ctx context.Context) sources.Health {
	return callHealth(ctx, r.c, ToolStatsHealth, sources.NameStats)
}

type remoteCompDB struct{ c *Client }

func (r *remoteCompDB) Fetch(ctx context.Context, req types.CompDBRequest) sources.Result[types.CompTable] {
	return callResult[types.CompTable](ctx, r.c, ToolCompDBScrape, CompDBScrapeParams{
		JobTitle:        req.JobTitle,
		City:            req.City,
		EducationLevel:  req.EducationLevel,
		ExperienceYears: req.ExperienceYears,
		Industry:        req.Industry,
		CompanySize:     req.CompanySize,
	})
}

func (r *remoteCompDB) EducationLevels() []string {
	ctx, cancel := context.WithTimeout(context.Background(), educationTimeout)
	defer cancel()
	text, err := r.c.call(ctx, ToolCompDBEducation, NoParams{})
	var out struct {
		EducationLevels []string `json:"education_levels"`
	}
	if err == nil {
		err = json.Unmarshal([]byte(text), &out)
	}
	if err != nil {
		r.c.log.Warn("education levels unavailable", "error", err)
		return nil
	}
	return out.EducationLevels
}

func (r *remoteCompDB) Health(ctx context.Context) sources.Health {
	return callHealth(ctx, r.c, ToolCompDBHealth, sources.NameCompDB)
}

type remoteJobBoard struct{ c *Client }

func (r *remoteJobBoard) Scrape(ctx context.Context, title, location string, maxResults int) sources.Result[[]types.JobPosting] {
	return callResult[[]types.JobPosting](ctx, r.c, ToolJobsScrape, JobsScrapeParams{JobTitle: title, Location: location, MaxResults: maxResults})
}

func (r *remoteJobBoard) Health(ctx context.Context) sources.Health {
	return callHealth(ctx, r.c, ToolJobsHealth, sources.NameJobBoard)
}
