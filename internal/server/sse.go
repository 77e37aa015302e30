package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jonathan/comp-collector/internal/pipeline"
)

// Stream event names.
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
	EventComplete = "complete"
)

// SSEWriter writes a run as Server-Sent Events. Progress arrives from the
// collector goroutines, so writes are serialized. Nothing is written after
// Complete.
type SSEWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
	closed  bool
}

// NewSSEWriter sets the stream headers on w.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one numbered event with a JSON payload.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Progress forwards a workflow event.
func (s *SSEWriter) Progress(e pipeline.ProgressEvent) error {
	return s.WriteEvent(EventProgress, e)
}

// Result sends the final response.
func (s *SSEWriter) Result(resp *pipeline.Response) error {
	return s.WriteEvent(EventResult, resp)
}

// Error sends an error event.
func (s *SSEWriter) Error(message string) {
	s.WriteEvent(EventError, map[string]string{"error": message}) //nolint:errcheck
}

// Complete sends the last event of the stream.
func (s *SSEWriter) Complete(runID, status string) {
	s.WriteEvent(EventComplete, map[string]string{ //nolint:errcheck
		"run_id": runID,
		"status": status,
	})
	s.Close()
}

// Close stops all further writes. It waits for an in-flight write, so the
// handler may return right after.
func (s *SSEWriter) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Heartbeat writes a comment line every interval until ctx is done or the
// stream completes, so idle proxies keep the connection open while the
// browsers work.
func (s *SSEWriter) Heartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			_, err := fmt.Fprint(s.w, ": keepalive\n\n")
			if err == nil {
				s.flusher.Flush()
			}
			s.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
