// Package pipeline runs one compensation search end to end: validate the
// query, collect from every source in parallel, structure the postings,
// and build the response.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/comp-collector/internal/collector"
	"github.com/jonathan/comp-collector/internal/interpreter"
	"github.com/jonathan/comp-collector/internal/logging"
	"github.com/jonathan/comp-collector/internal/metrics"
	"github.com/jonathan/comp-collector/internal/reconcile"
	"github.com/jonathan/comp-collector/internal/types"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when a run makes progress. It is called from
// several goroutines while sources are collected.
type ProgressCallback func(event ProgressEvent)

// RunOptions holds per-run settings.
type RunOptions struct {
	SessionID  string
	MaxResults int
	OnProgress ProgressCallback
}

// Workflow wires the interpreter, collector, and structurer together.
type Workflow struct {
	interp     *interpreter.Interpreter
	collector  *collector.Collector
	structurer *reconcile.Structurer
	log        *logging.Logger
	metrics    *metrics.Metrics
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.log = l
		}
	}
}

// WithMetrics records run outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workflow) { w.metrics = m }
}

// New creates a Workflow.
func New(interp *interpreter.Interpreter, coll *collector.Collector, opts ...Option) *Workflow {
	w := &Workflow{interp: interp, collector: coll, log: logging.Nop()}
	for _, opt := range opts {
		opt(w)
	}
	w.structurer = reconcile.New(w.log)
	return w
}

// Interpreter returns the workflow's query interpreter.
func (w *Workflow) Interpreter() *interpreter.Interpreter {
	return w.interp
}

type run struct {
	id      string
	state   State
	opts    RunOptions
	started time.Time
	log     *logging.Logger
}

func (w *Workflow) newRun(opts RunOptions) *run {
	id := uuid.NewString()
	return &run{
		id:      id,
		state:   StateStart,
		opts:    opts,
		started: time.Now(),
		log:     w.log.With("run_id", id),
	}
}

func (r *run) emit(step, category, message string, content any) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{
			Step:     step,
			Category: category,
			Message:  message,
			RunID:    r.id,
			Content:  content,
		})
	}
}

// enter moves the run to next, or panics on a transition the graph does
// not allow. The panic is turned into a failed response by finish.
func (r *run) enter(next State, message string) {
	if err := CheckTransition(r.state, next); err != nil {
		panic(err)
	}
	r.state = next
	r.log.Debug("workflow state", "state", next)
	r.emit(string(next), StateRegistry[next].Category, message, nil)
}

// RunQuery interprets a free-text query and, when it is complete, runs
// the search. A query needing clarification returns the question; the
// session stays open for RunFollowUp.
func (w *Workflow) RunQuery(ctx context.Context, query string, opts RunOptions) (resp *Response) {
	r := w.newRun(opts)
	defer w.finish(r, &resp)

	r.enter(StateValidate, "Validating query")
	outcome := w.interp.Interpret(ctx, opts.SessionID, query)
	return w.afterInterpret(ctx, r, query, outcome)
}

// RunFollowUp answers a pending clarification question and runs the
// search.
func (w *Workflow) RunFollowUp(ctx context.Context, reply string, opts RunOptions) (resp *Response) {
	r := w.newRun(opts)
	defer w.finish(r, &resp)

	r.enter(StateValidate, "Processing follow-up")
	outcome := w.interp.FollowUp(ctx, opts.SessionID, reply)
	return w.afterInterpret(ctx, r, "", outcome)
}

// RunSearch runs an already structured search request.
func (w *Workflow) RunSearch(ctx context.Context, req types.SearchRequest, opts RunOptions) (resp *Response) {
	r := w.newRun(opts)
	defer w.finish(r, &resp)

	r.enter(StateValidate, "Validating request")
	req = applyMax(req, opts.MaxResults)
	query := QueryInfo{
		Text:       req.JobTitle + " in " + req.Location,
		JobTitle:   req.JobTitle,
		Location:   req.Location,
		MaxResults: req.MaxResults,
	}
	if rej := validateRequest(req); rej != nil {
		r.enter(StateEnd, rej.Message)
		return validationFailed(r, query, rej.Message, rej.Suggestions)
	}
	return w.execute(ctx, r, query, req, "")
}

func (w *Workflow) afterInterpret(ctx context.Context, r *run, text string, outcome interpreter.Outcome) *Response {
	query := QueryInfo{Text: text}
	switch outcome.Kind {
	case interpreter.KindInvalid:
		r.enter(StateEnd, outcome.Message)
		resp := validationFailed(r, query, outcome.Message, outcome.Suggestions)
		resp.SessionID = outcome.SessionID
		w.interp.Release(outcome.SessionID)
		return resp
	case interpreter.KindNeedsClarification:
		r.enter(StateEnd, "Waiting for follow-up")
		return &Response{
			Status:           StatusNeedsFollowUp,
			Message:          outcome.Question,
			RunID:            r.id,
			Query:            query,
			WorkflowStatus:   WorkflowAwaitingFollowUp,
			NeedsFollowUp:    true,
			FollowUpQuestion: outcome.Question,
			MissingFields:    outcome.MissingFields,
			SessionID:        outcome.SessionID,
		}
	}

	req := applyMax(*outcome.Request, r.opts.MaxResults)
	query.JobTitle, query.Location, query.MaxResults = req.JobTitle, req.Location, req.MaxResults
	defer w.interp.Release(outcome.SessionID)
	resp := w.execute(ctx, r, query, req, outcome.Message)
	resp.SessionID = outcome.SessionID
	return resp
}

func (w *Workflow) execute(ctx context.Context, r *run, query QueryInfo, req types.SearchRequest, validationMsg string) *Response {
	r.log.Info("starting collection", "job_title", req.JobTitle, "location", req.Location, "max_results", req.MaxResults)
	r.enter(StateCollect, fmt.Sprintf("Collecting data for %s in %s", req.JobTitle, req.Location))
	coll := w.collector.Collect(ctx, req, func(source string, ok bool, elapsed time.Duration) {
		msg := fmt.Sprintf("%s finished in %s", source, elapsed.Round(time.Millisecond))
		if !ok {
			msg = fmt.Sprintf("%s failed after %s", source, elapsed.Round(time.Millisecond))
		}
		r.emit(source, CategorySource, msg, map[string]any{"ok": ok})
	})

	postings, _ := coll.Jobs.Best()
	r.enter(StateStructure, fmt.Sprintf("Structuring %d job postings", len(postings)))
	report := w.structurer.Structure(postings, coll.Stats, coll.CompDB)

	results := &Results{
		TotalFound:     len(postings),
		Jobs:           nonNil(postings),
		StructuredJobs: report.Records,
		TableData:      TableData{Headers: report.Headers, Rows: report.Rows},
		Summary:        report.Summary,
		Structuring:    Structuring{Status: report.Status, Message: report.Message},
		Validation:     Validation{Valid: true, Message: validationMsg},
	}
	if stats, ok := coll.Stats.Payload(); ok {
		results.BLSData = &stats
		results.CostOfLiving = stats.CostOfLiving
	}
	if table, ok := coll.CompDB.Payload(); ok {
		results.SalaryData = &table
	}

	var errs map[string]string
	if failed := coll.Failures(); len(failed) > 0 {
		errs = make(map[string]string, len(failed))
		for source, reason := range failed {
			errs[source] = fmt.Sprintf("No data available for source %s: %s", source, reason)
		}
	}

	r.enter(StateEnd, MsgProcessed)
	results.ProcessingTime = seconds(time.Since(r.started))
	return &Response{
		Status:         StatusSuccess,
		Message:        MsgProcessed,
		RunID:          r.id,
		Query:          query,
		Results:        results,
		WorkflowStatus: WorkflowCompleted,
		Errors:         errs,
	}
}

// finish turns a panic into a failed response and records the outcome.
func (w *Workflow) finish(r *run, resp **Response) {
	if rec := recover(); rec != nil {
		r.log.Error("workflow failed", "panic", rec, "state", r.state)
		msg := fmt.Sprint(rec)
		if err, ok := rec.(error); ok {
			msg = err.Error()
		}
		*resp = &Response{
			Status:         StatusError,
			Message:        msg,
			RunID:          r.id,
			WorkflowStatus: WorkflowFailed,
			Error:          msg,
		}
		w.interp.Release(r.opts.SessionID)
	}
	elapsed := time.Since(r.started)
	w.metrics.ObserveWorkflow((*resp).WorkflowStatus, elapsed)
	r.log.Info("workflow finished", "status", (*resp).WorkflowStatus, "elapsed", elapsed)
}

func validationFailed(r *run, query QueryInfo, message string, suggestions []string) *Response {
	return &Response{
		Status:         StatusError,
		Message:        message,
		RunID:          r.id,
		Query:          query,
		WorkflowStatus: WorkflowValidationFailed,
		Suggestions:    suggestions,
	}
}

func validateRequest(req types.SearchRequest) *interpreter.Rejection {
	if rej := interpreter.MissingRequired(req.JobTitle, req.Location); rej != nil {
		return rej
	}
	if rej := interpreter.CheckLocation(req.Location); rej != nil {
		return rej
	}
	if err := req.Validate(); err != nil {
		return &interpreter.Rejection{Message: fmt.Sprintf("Invalid search request: %v", err)}
	}
	return nil
}

func applyMax(req types.SearchRequest, maxResults int) types.SearchRequest {
	if maxResults > 0 {
		req.MaxResults = maxResults
	}
	return req.WithDefaults()
}

func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
