// Package fetch provides rate-limited HTTP fetching, an in-memory page cache,
// HTML-to-text helpers, and per-call headless browser sessions.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultTimeout bounds one request.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxBody caps how much of a response body is read.
	DefaultMaxBody = 8 << 20
	// DefaultUserAgent is sent on every request unless overridden.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// ErrBadStatus marks a response that arrived with a non-200 status.
var ErrBadStatus = errors.New("unexpected status")

// Result is one fetched page.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
	// Truncated is set when the body exceeded the read cap.
	Truncated bool
}

// Error describes which step of a fetch failed.
type Error struct {
	Op     string
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: HTTP %d", e.Op, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options configures requests. The zero value is usable.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// MaxBody caps the bytes read per response; zero means DefaultMaxBody.
	MaxBody int64
	// Client overrides the HTTP client.
	Client *http.Client
	// Limiter, when set, is waited on before every request.
	Limiter *HostLimiter
}

// DefaultOptions returns options with the default timeout and user agent.
func DefaultOptions() *Options {
	return &Options{Timeout: DefaultTimeout, UserAgent: DefaultUserAgent}
}

func (o *Options) httpClient() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (o *Options) maxBody() int64 {
	if o.MaxBody > 0 {
		return o.MaxBody
	}
	return DefaultMaxBody
}

// do validates the URL, waits on the host limiter and sends the request.
func (o *Options) do(ctx context.Context, method, raw string) (*http.Response, error) {
	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "" || u.Host == "") {
		err = errors.New("missing scheme or host")
	}
	if err != nil {
		return nil, &Error{Op: "parse", URL: raw, Err: err}
	}
	if o.Limiter != nil {
		if err := o.Limiter.Wait(ctx, u.Host); err != nil {
			return nil, &Error{Op: "wait", URL: raw, Err: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, raw, nil)
	if err != nil {
		return nil, &Error{Op: "request", URL: raw, Err: err}
	}
	ua := o.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	for k, v := range o.Headers {
		req.Header.Set(k, v)
	}
	resp, err := o.httpClient().Do(req)
	if err != nil {
		return nil, &Error{Op: method, URL: raw, Err: err}
	}
	return resp, nil
}

// URL fetches a page. A non-200 response is returned alongside an *Error
// wrapping ErrBadStatus so callers can still inspect the body.
func URL(ctx context.Context, raw string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	resp, err := opts.do(ctx, http.MethodGet, raw)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	limit := opts.maxBody()
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &Error{Op: "read", URL: raw, Err: err}
	}
	res := &Result{
		URL:         raw,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
	if int64(len(body)) > limit {
		body = body[:limit]
		res.Truncated = true
	}
	res.HTML = string(body)

	if resp.StatusCode != http.StatusOK {
		return res, &Error{Op: http.MethodGet, URL: raw, Status: resp.StatusCode, Err: ErrBadStatus}
	}
	return res, nil
}

// Exists reports whether a HEAD request for the URL answers 200.
func Exists(ctx context.Context, raw string, opts *Options) bool {
	if opts == nil {
		opts = DefaultOptions()
	}
	resp, err := opts.do(ctx, http.MethodHead, raw)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
