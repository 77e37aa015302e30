// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonathan/comp-collector/internal/jobindex"
	"github.com/jonathan/comp-collector/internal/pipeline"
	"github.com/jonathan/comp-collector/internal/reconcile"
	"github.com/jonathan/comp-collector/internal/sources"
)

const (
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxCellWidth truncates long cells in summary tables
	maxCellWidth = 60
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func truncate(s string) string {
	return text.Trim(s, maxCellWidth)
}

// PrintProgress writes one line per workflow event.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(e pipeline.ProgressEvent) {
	fmt.Fprintf(p.out, "[%s] %s\n", e.Step, e.Message)
}

// PrintResponse outputs a human-readable summary of a workflow response.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintResponse(resp *pipeline.Response) {
	if resp == nil {
		return
	}
	if resp.NeedsFollowUp {
		fmt.Fprintf(p.out, "%s\n", resp.FollowUpQuestion)
		return
	}
	if resp.Results == nil {
		fmt.Fprintf(p.out, "%s\n", resp.Message)
		for _, s := range resp.Suggestions {
			fmt.Fprintf(p.out, "  • %s\n", s)
		}
		if resp.Error != "" {
			fmt.Fprintf(p.out, "error: %s\n", resp.Error)
		}
		return
	}

	res := resp.Results
	t := p.newTable("SEARCH SUMMARY")
	t.AppendRow(table.Row{"Job title", resp.Query.JobTitle})
	t.AppendRow(table.Row{"Location", resp.Query.Location})
	t.AppendRow(table.Row{"Postings found", res.TotalFound})
	if res.BLSData != nil {
		t.AppendRow(table.Row{"BLS occupation", truncate(res.BLSData.MatchedTitle)})
		t.AppendRow(table.Row{"BLS median pay", res.BLSData.MedianPay})
	}
	if res.CostOfLiving != nil && res.CostOfLiving.Success {
		t.AppendRow(table.Row{"Cost of living", res.CostOfLiving.ComparisonToNational})
	}
	if s := res.Summary; s != nil {
		if s.SalaryRange != nil {
			lo, hi := s.SalaryRange.MinAnnual, s.SalaryRange.MaxAnnual
			t.AppendRow(table.Row{"Posted salary range", reconcile.Annual(&lo) + " - " + reconcile.Annual(&hi)})
		}
		if c := s.CompDBComparison; c != nil && c.Available {
			t.AppendRow(table.Row{"Salary.com range", reconcile.Annual(c.MinAnnual) + " - " + reconcile.Annual(c.MaxAnnual)})
		}
		if b := s.BLSComparison; b != nil {
			t.AppendRow(table.Row{"Above / below BLS", fmt.Sprintf("%d / %d", b.JobsAbove, b.JobsBelow)})
		}
	}
	t.AppendRow(table.Row{"Processing time", fmt.Sprintf("%.2fs", res.ProcessingTime)})
	t.Render()

	if len(res.TableData.Rows) > 0 {
		rt := p.newTable("STRUCTURED JOBS")
		header := make(table.Row, len(res.TableData.Headers))
		for i, h := range res.TableData.Headers {
			header[i] = h
		}
		rt.AppendHeader(header)
		for _, row := range res.TableData.Rows {
			r := make(table.Row, len(row))
			for i, cell := range row {
				r[i] = truncate(cell)
			}
			rt.AppendRow(r)
		}
		rt.Render()
	}

	if len(resp.Errors) > 0 {
		names := make([]string, 0, len(resp.Errors))
		for name := range resp.Errors {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(p.out, "⚠ %s\n", resp.Errors[name])
		}
	}
}

// PrintHealth outputs the adapter health checks.
func (p *Printer) PrintHealth(checks []sources.Health) {
	t := p.newTable("SOURCE HEALTH")
	t.AppendHeader(table.Row{"Source", "Status", "Message"})
	for _, c := range checks {
		status := string(c.Status)
		switch c.Status {
		case sources.StatusHealthy:
			status = text.FgGreen.Sprint(status)
		case sources.StatusUnhealthy:
			status = text.FgRed.Sprint(status)
		default:
			status = text.FgYellow.Sprint(status)
		}
		t.AppendRow(table.Row{c.Source, status, truncate(c.Message)})
	}
	t.Render()
}

// PrintIndexStatus outputs the job index cache status.
func (p *Printer) PrintIndexStatus(st jobindex.Status) {
	t := p.newTable("JOB INDEX")
	t.AppendRow(table.Row{"Entries", st.Size})
	refreshed := "never"
	if st.LastRefreshed != nil {
		refreshed = st.LastRefreshed.Format("2006-01-02 15:04:05")
	}
	t.AppendRow(table.Row{"Last refreshed", refreshed})
	t.AppendRow(table.Row{"Needs update", st.NeedsUpdate})
	t.Render()
}

// PrintLookup outputs how a title resolved against the job index.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintLookup(title string, res jobindex.LookupResult) {
	if res.Found {
		t := p.newTable("MATCH FOR " + strings.ToUpper(title))
		t.AppendRow(table.Row{"Title", res.Match.Entry.Title})
		t.AppendRow(table.Row{"Group", res.Match.Entry.GroupTitle})
		t.AppendRow(table.Row{"Score", res.Match.Score})
		if res.Match.Variant != "" {
			t.AppendRow(table.Row{"Variant", res.Match.Variant})
		}
		if res.Match.Domain != "" {
			t.AppendRow(table.Row{"Domain", res.Match.Domain})
		}
		t.AppendRow(table.Row{"URL", res.Match.Entry.URL})
		t.Render()
		return
	}

	fmt.Fprintf(p.out, "No match for %q\n", title)
	if len(res.Alternatives) == 0 {
		return
	}
	t := p.newTable("CLOSEST TITLES")
	t.AppendHeader(table.Row{"#", "Title", "Score"})
	count := min(len(res.Alternatives), maxItemsToShow)
	for i := 0; i < count; i++ {
		a := res.Alternatives[i]
		t.AppendRow(table.Row{i + 1, a.Entry.Title, a.Score})
	}
	if len(res.Alternatives) > maxItemsToShow {
		t.AppendRow(table.Row{"", fmt.Sprintf("... and %d more", len(res.Alternatives)-maxItemsToShow), ""})
	}
	t.Render()
}

// PrintIndexEntries lists up to limit entries in index order. A
// non-positive limit lists everything.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintIndexEntries(entries []jobindex.Entry, limit int) {
	if len(entries) == 0 {
		fmt.Fprintln(p.out, "Job index is empty")
		return
	}
	shown := entries
	if limit > 0 && len(entries) > limit {
		shown = entries[:limit]
	}
	t := p.newTable(fmt.Sprintf("JOB INDEX ENTRIES (%d)", len(entries)))
	t.AppendHeader(table.Row{"Title", "Group", "URL"})
	for _, e := range shown {
		t.AppendRow(table.Row{truncate(e.Title), e.GroupTitle, e.URL})
	}
	if len(shown) < len(entries) {
		t.AppendRow(table.Row{fmt.Sprintf("... and %d more", len(entries)-len(shown)), "", ""})
	}
	t.Render()
}
