// Package sources defines the contract shared by the three source adapters:
// a tagged success/failure result and a health report.
package sources

import (
	"encoding/json"
	"fmt"
)

// Result is the outcome of one adapter call. Exactly one of the success or
// failure variants is populated.
type Result[T any] struct {
	ok      bool
	payload T
	reason  string
	partial *T
}

// Success wraps a payload.
func Success[T any](payload T) Result[T] {
	return Result[T]{ok: true, payload: payload}
}

// Failure records why a call produced no payload.
func Failure[T any](reason string) Result[T] {
	return Result[T]{reason: reason}
}

// Failuref formats a failure reason.
func Failuref[T any](format string, args ...any) Result[T] {
	return Failure[T](fmt.Sprintf(format, args...))
}

// FailureWithPartial records a failure that still produced some data.
func FailureWithPartial[T any](reason string, partial T) Result[T] {
	return Result[T]{reason: reason, partial: &partial}
}

// OK reports whether the result is the success variant.
func (r Result[T]) OK() bool {
	return r.ok
}

// Payload returns the success payload and true, or the zero value and false.
func (r Result[T]) Payload() (T, bool) {
	return r.payload, r.ok
}

// Reason returns the failure reason; empty on success.
func (r Result[T]) Reason() string {
	return r.reason
}

// Partial returns the partial payload of a failure, if any.
func (r Result[T]) Partial() (T, bool) {
	if r.partial == nil {
		var zero T
		return zero, false
	}
	return *r.partial, true
}

// Best returns the payload on success, otherwise the partial payload.
func (r Result[T]) Best() (T, bool) {
	if r.ok {
		return r.payload, true
	}
	return r.Partial()
}

type resultJSON[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Partial *T     `json:"partial,omitempty"`
}

// MarshalJSON renders {"success": true, "data": ...} or
// {"success": false, "error": ..., "partial": ...}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	out := resultJSON[T]{Success: r.ok, Error: r.reason, Partial: r.partial}
	if r.ok {
		p := r.payload
		out.Data = &p
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON. A document claiming success
// without data is rejected so callers never see an empty success.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var in resultJSON[T]
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Success {
		if in.Data == nil {
			return fmt.Errorf("success result without data")
		}
		*r = Success(*in.Data)
		return nil
	}
	reason := in.Error
	if reason == "" {
		reason = "unknown error"
	}
	*r = Result[T]{reason: reason, partial: in.Partial}
	return nil
}
