package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/comp-collector/internal/interpreter"
	"github.com/jonathan/comp-collector/internal/pipeline"
	"github.com/jonathan/comp-collector/internal/reconcile"
	"github.com/jonathan/comp-collector/internal/sources"
	"github.com/jonathan/comp-collector/internal/types"
)

const (
	maxBodyBytes      = 1 << 20
	heartbeatInterval = 15 * time.Second
)

// SearchRequest is the body of POST /api/v1/jobs/search.
type SearchRequest struct {
	JobTitle   string `json:"job_title"`
	Location   string `json:"location"`
	MaxResults int    `json:"max_results"`
}

// QueryRequest is the body of POST /api/v1/jobs/query.
type QueryRequest struct {
	Query      string `json:"query"`
	SessionID  string `json:"session_id,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// FollowUpRequest is the body of POST /api/v1/jobs/follow-up.
type FollowUpRequest struct {
	SessionID  string `json:"session_id"`
	Reply      string `json:"reply"`
	MaxResults int    `json:"max_results,omitempty"`
}

// StreamRequest is the body of POST /api/v1/jobs/stream. A free-text
// query wins over job_title and location.
type StreamRequest struct {
	Query      string `json:"query,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	JobTitle   string `json:"job_title,omitempty"`
	Location   string `json:"location,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// ExportRequest is the body of POST /api/v1/jobs/export.
type ExportRequest struct {
	Format         string                `json:"format,omitempty"`
	StructuredJobs []types.StructuredJob `json:"structured_jobs"`
}

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &ErrValidation{Field: "body", Message: "request body is empty"}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.errorResponse(w, HTTPStatus(err), err.Error())
}

func (s *Server) respond(w http.ResponseWriter, resp *pipeline.Response) {
	s.jsonResponse(w, responseStatus(resp), resp)
}

// handleSearch runs a structured search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	resp := s.workflow.RunSearch(r.Context(), types.SearchRequest{
		JobTitle:   strings.TrimSpace(req.JobTitle),
		Location:   strings.TrimSpace(req.Location),
		MaxResults: req.MaxResults,
	}, pipeline.RunOptions{})
	s.respond(w, resp)
}

// handleQuery interprets a free-text query. The response is either a
// clarification question or a finished run.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	resp := s.workflow.RunQuery(r.Context(), req.Query, pipeline.RunOptions{
		SessionID:  req.SessionID,
		MaxResults: req.MaxResults,
	})
	s.respond(w, resp)
}

// handleFollowUp answers a clarification question.
func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	var req FollowUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if req.SessionID == "" {
		s.fail(w, &ErrValidation{Field: "session_id", Message: "is required"})
		return
	}
	resp := s.workflow.RunFollowUp(r.Context(), req.Reply, pipeline.RunOptions{
		SessionID:  req.SessionID,
		MaxResults: req.MaxResults,
	})
	s.respond(w, resp)
}

// handleStream runs a search and streams progress as server-sent events,
// ending with a result event and a complete event.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req StreamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.fail(w, err)
		return
	}

	defer sse.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go sse.Heartbeat(ctx, heartbeatInterval)

	opts := pipeline.RunOptions{
		SessionID:  req.SessionID,
		MaxResults: req.MaxResults,
		OnProgress: func(e pipeline.ProgressEvent) {
			if err := sse.Progress(e); err != nil {
				s.log.Debug("progress event dropped", "error", err)
			}
		},
	}

	var resp *pipeline.Response
	if req.Query != "" {
		resp = s.workflow.RunQuery(ctx, req.Query, opts)
	} else {
		resp = s.workflow.RunSearch(ctx, types.SearchRequest{
			JobTitle: strings.TrimSpace(req.JobTitle),
			Location: strings.TrimSpace(req.Location),
		}, opts)
	}

	if resp.WorkflowStatus == pipeline.WorkflowFailed {
		sse.Error(resp.Error)
	}
	if err := sse.Result(resp); err != nil {
		s.log.Warn("result event failed", "error", err)
		return
	}
	sse.Complete(resp.RunID, resp.WorkflowStatus)
}

// handleExport renders structured records as a spreadsheet.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if len(req.StructuredJobs) == 0 {
		s.fail(w, &ErrValidation{Field: "structured_jobs", Message: "at least one record is required"})
		return
	}
	format := strings.ToLower(req.Format)
	if format == "" {
		format = FormatXLSX
	}

	report := types.Report{
		Status:  types.ReportSuccess,
		Records: req.StructuredJobs,
		Headers: reconcile.Headers(),
		Rows:    reconcile.Rows(req.StructuredJobs),
	}

	var buf bytes.Buffer
	var contentType string
	switch format {
	case FormatXLSX:
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		if err := reconcile.WriteXLSX(&buf, report); err != nil {
			s.fail(w, fmt.Errorf("writing xlsx: %w", err))
			return
		}
	case FormatCSV:
		contentType = "text/csv; charset=utf-8"
		if err := reconcile.WriteCSV(&buf, report); err != nil {
			s.fail(w, fmt.Errorf("writing csv: %w", err))
			return
		}
	default:
		s.fail(w, &ErrUnsupportedFormat{Format: req.Format})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "job_data."+format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.Warn("export write failed", "error", err)
	}
}

// OptionsResponse lists the choices offered for the secondary fields.
type OptionsResponse struct {
	interpreter.Options
	CompDBEducationLevels []string `json:"salary_education_levels"`
	Defaults              struct {
		Industry       string `json:"industry"`
		CompanySize    string `json:"company_size"`
		Certifications string `json:"certifications"`
	} `json:"defaults"`
}

// handleOptions returns the option catalogs.
func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	resp := OptionsResponse{Options: interpreter.Catalog()}
	if s.sources.CompDB != nil {
		resp.CompDBEducationLevels = s.sources.CompDB.EducationLevels()
	}
	resp.Defaults.Industry = interpreter.DefaultIndustry
	resp.Defaults.CompanySize = interpreter.DefaultCompanySize
	resp.Defaults.Certifications = interpreter.DefaultCertifications
	s.jsonResponse(w, http.StatusOK, resp)
}

// SourcesHealthResponse aggregates the adapter health checks.
type SourcesHealthResponse struct {
	Status  sources.Status   `json:"status"`
	Sources []sources.Health `json:"sources"`
}

// handleSourcesHealth checks every adapter.
func (s *Server) handleSourcesHealth(w http.ResponseWriter, r *http.Request) {
	checks := s.sources.CheckAll(r.Context())
	overall := Overall(checks)
	status := http.StatusOK
	if overall == sources.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.jsonResponse(w, status, SourcesHealthResponse{Status: overall, Sources: checks})
}

// Overall is healthy when every check is, unhealthy when none is, and
// degraded otherwise.
func Overall(checks []sources.Health) sources.Status {
	healthy, unhealthy := 0, 0
	for _, c := range checks {
		switch c.Status {
		case sources.StatusHealthy:
			healthy++
		case sources.StatusUnhealthy:
			unhealthy++
		}
	}
	switch {
	case len(checks) > 0 && healthy == len(checks):
		return sources.StatusHealthy
	case unhealthy == len(checks):
		return sources.StatusUnhealthy
	default:
		return sources.StatusDegraded
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
