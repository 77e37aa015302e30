package pipeline

import (
	"github.com/jonathan/comp-collector/internal/types"
)

// Response statuses.
const (
	StatusSuccess       = "success"
	StatusError         = "error"
	StatusNeedsFollowUp = "needs_follow_up"
)

// Workflow statuses.
const (
	WorkflowCompleted        = "completed"
	WorkflowValidationFailed = "validation_failed"
	WorkflowAwaitingFollowUp = "awaiting_follow_up"
	WorkflowFailed           = "failed"
)

// MsgProcessed is the message of a completed run.
const MsgProcessed = "Job query processed successfully"

// Response is what one workflow run returns to its caller.
type Response struct {
	Status         string            `json:"status"`
	Message        string            `json:"message"`
	RunID          string            `json:"run_id,omitempty"`
	Query          QueryInfo         `json:"query"`
	Results        *Results          `json:"results,omitempty"`
	WorkflowStatus string            `json:"workflow_status"`
	Errors         map[string]string `json:"errors,omitempty"`
	Error          string            `json:"error,omitempty"`
	Suggestions    []string          `json:"suggestions,omitempty"`

	// Clarification protocol.
	NeedsFollowUp    bool     `json:"needs_follow_up,omitempty"`
	FollowUpQuestion string   `json:"follow_up_question,omitempty"`
	MissingFields    []string `json:"missing_fields,omitempty"`
	SessionID        string   `json:"session_id,omitempty"`
}

// QueryInfo echoes what was searched for.
type QueryInfo struct {
	Text       string `json:"text,omitempty"`
	JobTitle   string `json:"job_title,omitempty"`
	Location   string `json:"location,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// Results carries the collected and structured data of a completed run.
type Results struct {
	TotalFound     int                   `json:"total_found"`
	Jobs           []types.JobPosting    `json:"jobs"`
	BLSData        *types.StatsMatch     `json:"bls_data"`
	SalaryData     *types.CompTable      `json:"salary_data"`
	StructuredJobs []types.StructuredJob `json:"structured_jobs"`
	TableData      TableData             `json:"table_data"`
	Summary        *types.Summary        `json:"summary"`
	CostOfLiving   *types.CostOfLiving   `json:"cost_of_living"`
	Structuring    Structuring           `json:"structuring"`
	ProcessingTime float64               `json:"processing_time"`
	Validation     Validation            `json:"validation"`
}

// TableData is the display table of the structured records.
type TableData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Structuring reports how the structuring step went.
type Structuring struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Validation reports the validation step of a completed run.
type Validation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// Report rebuilds the structured report from the results, for export.
func (r *Results) Report() types.Report {
	return types.Report{
		Status:  r.Structuring.Status,
		Message: r.Structuring.Message,
		Records: r.StructuredJobs,
		Headers: r.TableData.Headers,
		Rows:    r.TableData.Rows,
		Summary: r.Summary,
	}
}
