package observability

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/comp-collector/internal/jobindex"
	"github.com/jonathan/comp-collector/internal/pipeline"
	"github.com/jonathan/comp-collector/internal/sources"
	"github.com/jonathan/comp-collector/internal/types"
)

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgress(pipeline.ProgressEvent{Step: "collect", Message: "Collecting"})
	assert.Equal(t, "[collect] Collecting\n", buf.String())
}

func TestPrintResponse_Completed(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	median := 132270.0
	lo, hi := 98000.0, 165000.0
	p.PrintResponse(&pipeline.Response{
		Query: pipeline.QueryInfo{JobTitle: "Software Engineer", Location: "Seattle"},
		Results: &pipeline.Results{
			TotalFound:   2,
			BLSData:      &types.StatsMatch{MatchedTitle: "Software Developers", MedianPay: "$132,270 per year", MedianAnnual: &median},
			CostOfLiving: &types.CostOfLiving{Success: true, ComparisonToNational: "52% higher"},
			Summary: &types.Summary{
				SalaryRange:      &types.SalaryRange{MinAnnual: 120000, MaxAnnual: 180000},
				CompDBComparison: &types.CompDBComparison{MinAnnual: &lo, MaxAnnual: &hi, Available: true},
			},
			TableData: pipeline.TableData{
				Headers: []string{"Job Title", "Min Salary (Annual)"},
				Rows:    [][]string{{"Backend Engineer", "$120,000"}},
			},
		},
		Errors: map[string]string{sources.NameCompDB: "No data available for source salary: timeout"},
	})
	out := buf.String()

	assert.Contains(t, out, "SEARCH SUMMARY")
	assert.Contains(t, out, "Software Developers")
	assert.Contains(t, out, "52% higher")
	assert.Contains(t, out, "$120,000 - $180,000")
	assert.Contains(t, out, "$98,000 - $165,000")
	assert.Contains(t, out, "Backend Engineer")
	assert.Contains(t, out, "⚠ No data available for source salary")
}

func TestPrintResponse_FollowUp(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResponse(&pipeline.Response{NeedsFollowUp: true, FollowUpQuestion: "Could you please share your years of experience?"})
	assert.Equal(t, "Could you please share your years of experience?\n", buf.String())
}

func TestPrintResponse_Invalid(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResponse(&pipeline.Response{
		Message:     "Please provide a location",
		Suggestions: []string{"Try: Nurse in Boston"},
	})
	assert.Contains(t, buf.String(), "Please provide a location")
	assert.Contains(t, buf.String(), "• Try: Nurse in Boston")
}

func TestPrintResponse_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResponse(nil)
	assert.Empty(t, buf.String())
}

func TestPrintHealth(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintHealth([]sources.Health{
		{Source: sources.NameStats, Status: sources.StatusHealthy},
		{Source: sources.NameCompDB, Status: sources.StatusUnhealthy, Message: "source not configured"},
	})
	out := buf.String()
	assert.Contains(t, out, "SOURCE HEALTH")
	assert.Contains(t, out, sources.NameStats)
	assert.Contains(t, out, "source not configured")
}

func TestPrintIndexStatus(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintIndexStatus(jobindex.Status{NeedsUpdate: true})
	assert.Contains(t, buf.String(), "never")

	buf.Reset()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	p.PrintIndexStatus(jobindex.Status{Size: 812, LastRefreshed: &at})
	assert.Contains(t, buf.String(), "812")
	assert.Contains(t, buf.String(), "2026-03-01 09:30:00")
}

func TestPrintLookup(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLookup("software engineer", jobindex.LookupResult{
		Found: true,
		Match: jobindex.Match{Entry: jobindex.Entry{Title: "Software Developers", GroupTitle: "Computer and Information Technology"}, Score: 92},
	})
	assert.Contains(t, buf.String(), "MATCH FOR SOFTWARE ENGINEER")
	assert.Contains(t, buf.String(), "Software Developers")

	buf.Reset()
	alts := make([]jobindex.Scored, 7)
	for i := range alts {
		alts[i] = jobindex.Scored{Entry: jobindex.Entry{Title: "Title"}, Score: 50 - i}
	}
	p.PrintLookup("wizard", jobindex.LookupResult{Alternatives: alts})
	assert.Contains(t, buf.String(), `No match for "wizard"`)
	assert.Contains(t, buf.String(), "... and 2 more")
}

func TestPrintIndexEntries(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintIndexEntries(nil, 10)
	assert.Equal(t, "Job index is empty\n", buf.String())

	buf.Reset()
	entries := []jobindex.Entry{
		{Title: "Software Developers", GroupTitle: "Computer and Information Technology"},
		{Title: "Registered Nurses", GroupTitle: "Healthcare"},
		{Title: "Electricians", GroupTitle: "Construction and Extraction"},
	}
	p.PrintIndexEntries(entries, 2)
	out := buf.String()
	assert.Contains(t, out, "JOB INDEX ENTRIES (3)")
	assert.Contains(t, out, "Registered Nurses")
	assert.NotContains(t, out, "Electricians")
	assert.Contains(t, out, "... and 1 more")
}
