package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/comp-collector/internal/observability"
	"github.com/jonathan/comp-collector/internal/pipeline"
	"github.com/jonathan/comp-collector/internal/reconcile"
	"github.com/jonathan/comp-collector/internal/types"
)

var (
	queryMaxResults  int
	queryXLSX        string
	queryCSV         string
	queryJSON        bool
	queryInteractive bool
	queryTitle       string
	queryLocation    string
)

var queryCmd = &cobra.Command{
	Use:   `query ["free text query"]`,
	Short: "Run one search and print the report",
	Long: `Interprets a free-text query (or --title/--location), asks for missing details on the
terminal, collects all sources, and prints the reconciled report. The report table can be
exported with --xlsx and --csv.`,
	Example: `  comp_agent query "Software Engineer in Seattle"
  comp_agent query --title "Registered Nurse" --location Boston --xlsx nurses.xlsx`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryMaxResults, "max-results", "n", 0, "Maximum job postings to collect (defaults to MAX_RESULTS or 50)")
	queryCmd.Flags().StringVar(&queryXLSX, "xlsx", "", "Write the report table to this .xlsx file")
	queryCmd.Flags().StringVar(&queryCSV, "csv", "", "Write the report table to this .csv file")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Print the raw JSON response instead of tables")
	queryCmd.Flags().BoolVarP(&queryInteractive, "interactive", "i", true, "Answer clarification questions on stdin; otherwise defaults are used")
	queryCmd.Flags().StringVar(&queryTitle, "title", "", "Job title for a structured search")
	queryCmd.Flags().StringVar(&queryLocation, "location", "", "Location for a structured search")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" && queryTitle == "" {
		return errors.New("provide a query or --title and --location")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	wf, err := a.workflow(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)
	opts := pipeline.RunOptions{MaxResults: queryMaxResults}
	if queryMaxResults == 0 {
		opts.MaxResults = a.cfg.MaxResults
	}
	if verbose {
		opts.OnProgress = printer.PrintProgress
	}

	var resp *pipeline.Response
	if text != "" {
		resp = converse(ctx, wf, text, opts, bufio.NewReader(cmd.InOrStdin()), out)
	} else {
		resp = wf.RunSearch(ctx, types.SearchRequest{JobTitle: queryTitle, Location: queryLocation}, opts)
	}

	if queryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
	} else {
		printer.PrintResponse(resp)
	}

	if err := exportResults(resp, queryXLSX, queryCSV); err != nil {
		return err
	}
	switch resp.WorkflowStatus {
	case pipeline.WorkflowFailed:
		return fmt.Errorf("workflow failed: %s", resp.Error)
	case pipeline.WorkflowValidationFailed:
		return errors.New(resp.Message)
	}
	return nil
}

// converse runs a query and keeps answering clarification questions until
// the workflow completes. Without an interactive terminal, or once stdin is
// exhausted, the question is skipped and defaults apply.
func converse(ctx context.Context, wf *pipeline.Workflow, text string, opts pipeline.RunOptions, in *bufio.Reader, out io.Writer) *pipeline.Response {
	resp := wf.RunQuery(ctx, text, opts)
	for resp.NeedsFollowUp {
		reply := "skip"
		if queryInteractive {
			fmt.Fprintf(out, "%s\n> ", resp.FollowUpQuestion) //nolint:errcheck
			line, err := in.ReadString('\n')
			if err != nil && line == "" {
				line = "skip"
			}
			reply = strings.TrimSpace(line)
		}
		opts.SessionID = resp.SessionID
		resp = wf.RunFollowUp(ctx, reply, opts)
	}
	return resp
}

// exportResults writes the report table to the requested files.
func exportResults(resp *pipeline.Response, xlsxPath, csvPath string) error {
	if xlsxPath == "" && csvPath == "" {
		return nil
	}
	if resp.Results == nil || len(resp.Results.StructuredJobs) == 0 {
		return errors.New("nothing to export: the search returned no structured jobs")
	}
	report := resp.Results.Report()
	if xlsxPath != "" {
		if err := writeFile(xlsxPath, func(w io.Writer) error { return reconcile.WriteXLSX(w, report) }); err != nil {
			return err
		}
	}
	if csvPath != "" {
		if err := writeFile(csvPath, func(w io.Writer) error { return reconcile.WriteCSV(w, report) }); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
