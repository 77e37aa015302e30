package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/comp-collector/internal/pipeline"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnsupportedFormat indicates an export format the server cannot write
type ErrUnsupportedFormat struct {
	Format string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported export format: %s", e.Format)
}

// ErrStreamingUnsupported indicates the response writer cannot flush
var ErrStreamingUnsupported = errors.New("streaming not supported")

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var format *ErrUnsupportedFormat
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &format):
		return http.StatusBadRequest
	case errors.Is(err, ErrStreamingUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// responseStatus maps a workflow outcome to an HTTP status. Completed runs
// and clarification questions are 200 even when some sources failed.
func responseStatus(resp *pipeline.Response) int {
	switch resp.WorkflowStatus {
	case pipeline.WorkflowValidationFailed:
		return http.StatusUnprocessableEntity
	case pipeline.WorkflowFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
